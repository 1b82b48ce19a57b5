package orbix

import (
	"fmt"
	"time"
)

// UserProfile is a user's public profile. CreatedDate is nil when the
// upstream returned the simplified profile shape, which omits the
// creation timestamp; the social counts are zero there for the same
// reason.
type UserProfile struct {
	ID             int64
	Username       string
	DisplayName    string
	Description    string
	CreatedDate    *time.Time
	FollowerCount  int64
	FollowingCount int64
	FriendCount    int64
	IsVerified     bool
}

// ProfileURL returns the public web URL of the profile.
func (p UserProfile) ProfileURL() string {
	return fmt.Sprintf("https://www.roblox.com/users/%d/profile", p.ID)
}

// UserAvatar holds the three avatar thumbnail URLs for a user. A URL is
// empty when that thumbnail could not be fetched.
type UserAvatar struct {
	UserID      int64
	HeadshotURL string
	BustURL     string
	FullBodyURL string
}

// UserBadge is a badge awarded to a user.
type UserBadge struct {
	ID                int64
	Name              string
	Description       string
	Enabled           bool
	IconImageID       int64
	Created           *time.Time
	AwardedCount      int64
	WinRatePercentage float64
}

// UserPresence is a user's current online state.
type UserPresence struct {
	UserID       int64
	PresenceType int
	LastLocation string
	PlaceID      int64
	RootPlaceID  int64
	GameID       string
	UniverseID   int64
}

// Game is a game (universe) with its public stats.
type Game struct {
	ID          int64
	RootPlaceID int64
	Name        string
	Description string
	CreatorID   int64
	CreatorName string
	CreatorType string
	Playing     int64
	Visits      int64
	MaxPlayers  int
	Created     *time.Time
	Genre       string
}

// FavouriteGame is a game on a user's favourites list.
type FavouriteGame struct {
	Game Game
}

// WearingItem is an asset a user is currently wearing.
type WearingItem struct {
	AssetID int64
}

// LimitedItem is a collectible asset in a user's inventory.
type LimitedItem struct {
	UserAssetID        int64
	SerialNumber       int64
	AssetID            int64
	Name               string
	RecentAveragePrice int64
	OriginalPrice      int64
	AssetStock         int64
	IsOnHold           bool
}

// BadgePage is one page of a user's badges with pagination cursors
// passed through opaquely from the upstream API.
type BadgePage struct {
	Badges         []UserBadge
	PreviousCursor string
	NextCursor     string
}

// FavouriteGamePage is one page of a user's favourite games.
type FavouriteGamePage struct {
	Games          []FavouriteGame
	PreviousCursor string
	NextCursor     string
}

// LimitedItemPage is one page of a user's limited items.
type LimitedItemPage struct {
	Items          []LimitedItem
	PreviousCursor string
	NextCursor     string
}
