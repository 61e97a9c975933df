// Package domain defines the persistence models for categories, startups,
// and comments. These types are mapped with GORM and form the core data
// layer of the LaunchPad directory.
package domain

import (
	"time"

	"gorm.io/gorm"
)

// Category groups startups under a stable, URL-friendly slug
// (e.g. "ai", "fintech"). Categories are small and mostly static.
//
// Fields:
//   - ID: auto-increment primary key.
//   - Name: human-readable category name, unique.
//   - Slug: URL identifier, unique, lowercase.
//   - CreatedAt / UpdatedAt: timestamps managed by GORM.
type Category struct {
	ID        uint      `json:"id"         gorm:"primaryKey"`
	Name      string    `json:"name"       gorm:"type:varchar(64);not null;uniqueIndex"`
	Slug      string    `json:"slug"       gorm:"type:varchar(64);not null;uniqueIndex"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName returns the database table name for Category.
func (Category) TableName() string { return "categories" }

// Startup is a single directory listing. Startups belong to exactly one
// category, accrue upvotes, and receive comments.
//
// Fields:
//   - ID: stable UUID primary key (char(36)).
//   - Name / Tagline / Description: listing copy shown in the directory.
//   - URL: startup homepage; unique so a site can only be listed once.
//   - CategoryID: foreign key to the owning category (indexed).
//   - SubmitterID: identifier of the submitting user; indexed.
//   - Upvotes: denormalized vote counter, incremented transactionally.
//   - CreatedAt / UpdatedAt: timestamps managed by GORM.
//   - DeletedAt: soft deletion marker (retains row for audit/history).
type Startup struct {
	ID          string         `json:"id"          gorm:"type:char(36);primaryKey"`
	Name        string         `json:"name"        gorm:"type:varchar(80);not null;index"`
	Tagline     string         `json:"tagline"     gorm:"type:varchar(160);not null"`
	Description string         `json:"description" gorm:"type:text;not null"`
	URL         string         `json:"url"         gorm:"type:varchar(255);not null;uniqueIndex:ux_startup_url"`
	CategoryID  uint           `json:"category_id" gorm:"not null;index:idx_category_startups"`
	SubmitterID string         `json:"submitter_id" gorm:"type:varchar(64);not null;index"`
	Upvotes     int            `json:"upvotes"     gorm:"not null;default:0"`
	CreatedAt   time.Time      `json:"created_at"  gorm:"index"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `json:"-"           gorm:"index"`

	// Category is the owning category. Category rows cannot be removed
	// while startups still reference them.
	Category Category `json:"-" gorm:"foreignKey:CategoryID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT"`
}

// TableName returns the database table name for Startup.
func (Startup) TableName() string { return "startups" }

// Upvote records that a user has upvoted a startup. The unique index on
// (startup_id, user_id) is what makes the denormalized Startup.Upvotes
// counter trustworthy: a second vote by the same user fails the insert.
type Upvote struct {
	ID        string    `json:"id"         gorm:"type:char(36);primaryKey"`
	StartupID string    `json:"startup_id" gorm:"type:char(36);not null;index;uniqueIndex:ux_upvote_startup_user"`
	UserID    string    `json:"user_id"    gorm:"type:varchar(64);not null;uniqueIndex:ux_upvote_startup_user"`
	CreatedAt time.Time `json:"created_at"`

	// Startup is the voted listing. Votes are cascade-deleted with it.
	Startup Startup `json:"-" gorm:"foreignKey:StartupID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for Upvote.
func (Upvote) TableName() string { return "upvotes" }

// Comment is a user remark attached to a startup listing. New comments
// are fanned out to live subscribers via the in-process broker.
//
// Fields:
//   - ID: UUID primary key (char(36)).
//   - StartupID: foreign key to the commented startup (indexed).
//   - AuthorID: identifier of the comment author.
//   - Body: comment text.
//   - CreatedAt / UpdatedAt: timestamps managed by GORM.
//   - DeletedAt: soft deletion marker.
type Comment struct {
	ID        string         `json:"id"         gorm:"type:char(36);primaryKey"`
	StartupID string         `json:"startup_id" gorm:"type:char(36);not null;index:idx_startup_comments,priority:1"`
	AuthorID  string         `json:"author_id"  gorm:"type:varchar(64);not null;index"`
	Body      string         `json:"body"       gorm:"type:text;not null"`
	CreatedAt time.Time      `json:"created_at" gorm:"index:idx_startup_comments,priority:2"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-"          gorm:"index"`

	// Startup is the parent listing. Comments are cascade-deleted if
	// their startup is removed.
	Startup Startup `json:"-" gorm:"foreignKey:StartupID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for Comment.
func (Comment) TableName() string { return "comments" }
