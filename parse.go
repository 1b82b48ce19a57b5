package orbix

import (
	"fmt"
	"time"
)

// JSON decoding yields map[string]any with float64 numbers; these
// helpers pull typed fields out with the upstream's documented defaults.

func asString(m map[string]any, key string) string {
	if v, ok := m[key].(string); ok {
		return v
	}
	return ""
}

func asInt64(m map[string]any, key string) int64 {
	switch v := m[key].(type) {
	case float64:
		return int64(v)
	case int64:
		return v
	case int:
		return int64(v)
	}
	return 0
}

func asFloat(m map[string]any, key string) float64 {
	if v, ok := m[key].(float64); ok {
		return v
	}
	return 0
}

func asBool(m map[string]any, key string) bool {
	if v, ok := m[key].(bool); ok {
		return v
	}
	return false
}

func asMap(m map[string]any, key string) map[string]any {
	if v, ok := m[key].(map[string]any); ok {
		return v
	}
	return map[string]any{}
}

func asSlice(m map[string]any, key string) []any {
	if v, ok := m[key].([]any); ok {
		return v
	}
	return nil
}

// asTime parses an RFC 3339 timestamp field, returning nil when the
// field is absent or malformed. A nil result is the typed absence the
// simplified profile shape carries.
func asTime(m map[string]any, key string) *time.Time {
	s, ok := m[key].(string)
	if !ok || s == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil
	}
	return &t
}

func parseUserProfile(data map[string]any) (UserProfile, error) {
	id := asInt64(data, "id")
	if id == 0 {
		return UserProfile{}, fmt.Errorf("orbix: profile data missing id")
	}

	displayName := asString(data, "displayName")
	if displayName == "" {
		displayName = asString(data, "name")
	}

	return UserProfile{
		ID:          id,
		Username:    asString(data, "name"),
		DisplayName: displayName,
		Description: asString(data, "description"),
		CreatedDate: asTime(data, "created"),
		IsVerified:  asBool(data, "hasVerifiedBadge"),
	}, nil
}

func parseUserBadge(data map[string]any) (UserBadge, error) {
	id := asInt64(data, "id")
	if id == 0 {
		return UserBadge{}, fmt.Errorf("orbix: badge data missing id")
	}

	statistics := asMap(data, "statistics")
	enabled := true
	if v, ok := data["enabled"].(bool); ok {
		enabled = v
	}

	return UserBadge{
		ID:                id,
		Name:              asString(data, "name"),
		Description:       asString(data, "description"),
		Enabled:           enabled,
		IconImageID:       asInt64(data, "iconImageId"),
		Created:           asTime(data, "created"),
		AwardedCount:      asInt64(statistics, "awardedCount"),
		WinRatePercentage: asFloat(statistics, "winRatePercentage"),
	}, nil
}

func parseUserPresence(data map[string]any) (UserPresence, error) {
	if _, ok := data["userId"]; !ok {
		return UserPresence{}, fmt.Errorf("orbix: presence data missing userId")
	}

	return UserPresence{
		UserID:       asInt64(data, "userId"),
		PresenceType: int(asInt64(data, "userPresenceType")),
		LastLocation: asString(data, "lastLocation"),
		PlaceID:      asInt64(data, "placeId"),
		RootPlaceID:  asInt64(data, "rootPlaceId"),
		GameID:       asString(data, "gameId"),
		UniverseID:   asInt64(data, "universeId"),
	}, nil
}

func parseGame(data map[string]any) (Game, error) {
	id := asInt64(data, "id")
	if id == 0 {
		return Game{}, fmt.Errorf("orbix: game data missing id")
	}

	creator := asMap(data, "creator")
	creatorType := asString(creator, "type")
	if creatorType == "" {
		creatorType = "User"
	}

	return Game{
		ID:          id,
		RootPlaceID: asInt64(data, "rootPlaceId"),
		Name:        asString(data, "name"),
		Description: asString(data, "description"),
		CreatorID:   asInt64(creator, "id"),
		CreatorName: asString(creator, "name"),
		CreatorType: creatorType,
		Playing:     asInt64(data, "playing"),
		Visits:      asInt64(data, "visits"),
		MaxPlayers:  int(asInt64(data, "maxPlayers")),
		Created:     asTime(data, "created"),
		Genre:       asString(data, "genre"),
	}, nil
}

func parseLimitedItem(data map[string]any) LimitedItem {
	return LimitedItem{
		UserAssetID:        asInt64(data, "userAssetId"),
		SerialNumber:       asInt64(data, "serialNumber"),
		AssetID:            asInt64(data, "assetId"),
		Name:               asString(data, "name"),
		RecentAveragePrice: asInt64(data, "recentAveragePrice"),
		OriginalPrice:      asInt64(data, "originalPrice"),
		AssetStock:         asInt64(data, "assetStock"),
		IsOnHold:           asBool(data, "isOnHold"),
	}
}

// thumbnailURL extracts the image URL from a thumbnail response; an
// empty string is the documented degraded default.
func thumbnailURL(response map[string]any) string {
	data := asSlice(response, "data")
	if len(data) == 0 {
		return ""
	}
	first, ok := data[0].(map[string]any)
	if !ok {
		return ""
	}
	return asString(first, "imageUrl")
}
