package db

import (
	"time"

	"gorm.io/datatypes"
)

// Swipe actions.
const (
	ActionInterested = "interested"
	ActionPass       = "pass"
)

// Profile enum values.
const (
	GenderMale      = "male"
	GenderFemale    = "female"
	GenderNonBinary = "non-binary"
	GenderOther     = "other"

	SameGenderYes          = "yes"
	SameGenderNo           = "no"
	SameGenderNoPreference = "no_preference"

	JobInternship = "internship"
	JobFullTime   = "full_time"
)

// User mirrors an identity owned by the external identity provider.
// The row is created the first time a token for that subject is seen so
// match notifications can resolve an email address.
type User struct {
	ID         string    `gorm:"primaryKey;size:64" json:"id"`
	Email      string    `gorm:"size:255;index" json:"email"`
	LastSeenAt time.Time `json:"last_seen_at"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// Profile is the public card a user browses and matches on. One per user.
//
// Indexes:
//   - idx_profiles_active_created(is_active, created_at DESC)
//     Serves the newest-first candidate listing.
type Profile struct {
	ID             uint64                      `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID         string                      `gorm:"uniqueIndex;size:64;not null" json:"user_id"`
	Name           string                      `gorm:"size:128;not null" json:"name"`
	Age            int                         `gorm:"not null" json:"age"`
	Major          *string                     `gorm:"size:128" json:"major"`
	Gender         *string                     `gorm:"size:16" json:"gender"`
	Location       string                      `gorm:"size:255;not null" json:"location"`
	Region         *string                     `gorm:"size:64" json:"region"`
	SameGenderPref string                      `gorm:"size:16;not null" json:"same_gender_pref"`
	MaxPrice       *int                        `json:"max_price"`
	MoveInDate     *string                     `gorm:"size:10" json:"move_in_date"`
	JobType        *string                     `gorm:"size:16" json:"job_type"`
	Bio            *string                     `gorm:"type:text" json:"bio"`
	ContactInfo    *string                     `gorm:"size:255" json:"contact_info"`
	PhotoURLs      datatypes.JSONSlice[string] `gorm:"column:photo_urls" json:"photo_urls"`
	IsActive       bool                        `gorm:"not null;index:idx_profiles_active_created,priority:1" json:"is_active"`
	CreatedAt      time.Time                   `gorm:"autoCreateTime;index:idx_profiles_active_created,priority:2,sort:desc" json:"created_at"`
	UpdatedAt      time.Time                   `gorm:"autoUpdateTime" json:"updated_at"`
}

// Swipe is a directional decision from swiper to swiped.
//
// Composite PK: (SwiperID, SwipedID)
//   - At most one decision per ordered pair. A second insert fails with a
//     duplicate key error instead of overwriting.
//   - The same key serves the reciprocal lookup (swiped -> swiper).
type Swipe struct {
	SwiperID  string    `gorm:"primaryKey;size:64" json:"swiper_id"`
	SwipedID  string    `gorm:"primaryKey;size:64;index" json:"swiped_id"`
	Action    string    `gorm:"size:16;not null" json:"action"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// Match is a mutual-interest pairing.
//
// The pair is stored canonically (User1ID < User2ID) and
// idx_matches_pair is unique, so {A,B} and {B,A} collide on insert.
//
// User1MessageCount / User2MessageCount count each participant's messages
// and are only changed through a conditional update that keeps them <= the
// message limit.
type Match struct {
	ID                string    `gorm:"primaryKey;size:36" json:"id"`
	User1ID           string    `gorm:"size:64;not null;uniqueIndex:idx_matches_pair,priority:1" json:"user1_id"`
	User2ID           string    `gorm:"size:64;not null;uniqueIndex:idx_matches_pair,priority:2;index" json:"user2_id"`
	User1MessageCount int       `gorm:"not null" json:"-"`
	User2MessageCount int       `gorm:"not null" json:"-"`
	CreatedAt         time.Time `gorm:"autoCreateTime;index" json:"created_at"`
	Messages          []Message `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}

// HasUser reports whether userID participates in the match.
func (m *Match) HasUser(userID string) bool {
	return userID != "" && (m.User1ID == userID || m.User2ID == userID)
}

// OtherUserID returns the participant that is not userID.
func (m *Match) OtherUserID(userID string) string {
	if m.User1ID == userID {
		return m.User2ID
	}
	return m.User1ID
}

// MessageCountFor returns how many messages userID has sent in the match.
func (m *Match) MessageCountFor(userID string) int {
	switch userID {
	case m.User1ID:
		return m.User1MessageCount
	case m.User2ID:
		return m.User2MessageCount
	}
	return 0
}

// Message is a chat line inside a match. IDs are monotonic, so ordering by
// ID is ordering by creation.
type Message struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	MatchID   string    `gorm:"size:36;not null;index:idx_messages_match_sender,priority:1" json:"match_id"`
	SenderID  string    `gorm:"size:64;not null;index:idx_messages_match_sender,priority:2" json:"sender_id"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// CanonicalPair orders two user IDs so that the smaller comes first.
func CanonicalPair(a, b string) (string, string) {
	if a < b {
		return a, b
	}
	return b, a
}
