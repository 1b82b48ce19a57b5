package orbix

// Service names route requests to the right API subdomain and double as
// rate-limit method groups where the two coincide.
const (
	ServiceUsers      = "users"
	ServiceThumbnails = "thumbnails"
	ServiceGames      = "games"
	ServiceBadges     = "badges"
	ServiceFriends    = "friends"
	ServicePresence   = "presence"
	ServiceAvatar     = "avatar"
	ServiceInventory  = "inventory"
)

var defaultBaseURLs = map[string]string{
	ServiceUsers:      "https://users.roblox.com",
	ServiceThumbnails: "https://thumbnails.roblox.com",
	ServiceGames:      "https://games.roblox.com",
	ServiceBadges:     "https://badges.roblox.com",
	ServiceFriends:    "https://friends.roblox.com",
	ServicePresence:   "https://presence.roblox.com",
	ServiceAvatar:     "https://avatar.roblox.com",
	ServiceInventory:  "https://inventory.roblox.com",
}

const fallbackBaseURL = "https://api.roblox.com"
