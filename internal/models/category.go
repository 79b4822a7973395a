package models

// Category is a node in the category forest. The hierarchy is stored only as
// the ParentID edge; children are found by querying parent_id.
type Category struct {
	Base
	Name        string  `gorm:"size:100;not null;index" json:"name"`
	Description string  `gorm:"size:255" json:"description"`
	Color       string  `gorm:"size:7" json:"color"`
	Icon        string  `gorm:"size:50" json:"icon"`
	ParentID    *string `gorm:"type:uuid;index" json:"parent_id,omitempty"`
}
