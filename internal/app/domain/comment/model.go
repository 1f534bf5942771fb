package comment

import "time"

// Comment is user feedback attached to either an item or an outfit; exactly
// one of ItemID/OutfitID is set. Rating is an optional 1-5 star score.
type Comment struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	ItemID    int64     `json:"item_id,omitempty"`
	OutfitID  int64     `json:"outfit_id,omitempty"`
	Content   string    `json:"content"`
	Rating    *int      `json:"rating,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Populated on read.
	Likes    int    `json:"likes"`
	UserName string `json:"user_name,omitempty"`
}
