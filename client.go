package orbix

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

const (
	maxBatchUsers    = 100
	maxPresenceUsers = 20
	maxGameUniverses = 100
	warmBatchSize    = 50
)

// Client is the public façade over the request orchestration layer. A
// single instance is safe for concurrent use; construct one per process
// and Close it when done.
type Client struct {
	transport *transport
	cache     Cache
	limiter   *RateLimiterRegistry
	retry     *RetryPolicy
	monitor   *PerformanceMonitor
	metrics   *MetricsCollector
	audit     *AuditLog
	logger    zerolog.Logger
	timeout   time.Duration

	rootCtx   context.Context
	shutdown  context.CancelFunc
	mu        sync.Mutex
	closed    bool
	inFlight  sync.WaitGroup
	closeOnce sync.Once
	closeErr  error
}

// New constructs a Client from the provided functional options.
func New(options ...Option) (*Client, error) {
	cfg := defaultConfig()
	for _, option := range options {
		option(&cfg)
	}

	var cache Cache
	switch {
	case cfg.cacheDisabled:
	case cfg.customCache != nil:
		cache = cfg.customCache
	default:
		lruCache, err := NewLRUCache(cfg.cacheCapacity, cfg.cacheTTL)
		if err != nil {
			return nil, fmt.Errorf("orbix: create cache: %w", err)
		}
		cache = lruCache
	}

	var audit *AuditLog
	if cfg.auditPath != "" {
		opened, err := OpenAuditLog(cfg.auditPath)
		if err != nil {
			return nil, fmt.Errorf("orbix: open audit log: %w", err)
		}
		audit = opened
	}

	retry := NewRetryPolicy(cfg.maxRetries, cfg.initialBackoff, cfg.maxBackoff, cfg.backoffMultiplier, cfg.jitter)
	retry.SetStrategy(cfg.backoffStrategy)

	rootCtx, shutdown := context.WithCancel(context.Background())

	return &Client{
		transport: newTransport(cfg.timeout, cfg.httpClient, cfg.baseURLs, cfg.logger),
		cache:     cache,
		limiter:   NewRateLimiterRegistry(cfg.rateWindow, cfg.rateLimits),
		retry:     retry,
		monitor:   NewPerformanceMonitor(cfg.monitorCapacity),
		metrics:   cfg.metrics,
		audit:     audit,
		logger:    cfg.logger,
		timeout:   cfg.timeout,
		rootCtx:   rootCtx,
		shutdown:  shutdown,
	}, nil
}

func (c *Client) acquire() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	c.inFlight.Add(1)
	return nil
}

// Close cancels in-flight operations, waits for them to finish and
// releases the transport and audit database. It is idempotent and safe
// to call concurrently with running operations.
func (c *Client) Close() error {
	c.closeOnce.Do(func() {
		c.mu.Lock()
		c.closed = true
		c.mu.Unlock()

		c.shutdown()
		c.inFlight.Wait()
		c.transport.closeIdle()
		if c.audit != nil {
			c.closeErr = c.audit.Close()
		}
	})
	return c.closeErr
}

// GetUser fetches a user's profile, aggregating the base profile with
// the follower, following and friend counts fetched concurrently. A
// failed count degrades to zero rather than failing the profile.
func (c *Client) GetUser(ctx context.Context, userID int64) (UserProfile, error) {
	path := fmt.Sprintf("/v1/users/%d", userID)

	op := Operation{
		Name:     "users.get",
		CacheKey: c.userCacheKey(userID),
		Subrequests: []Subrequest{
			{
				Name:   "users.profile",
				Method: http.MethodGet,
				Group:  GroupUsers,
				Call: func(ctx context.Context) (any, error) {
					return c.transport.get(ctx, ServiceUsers, path, nil)
				},
			},
			c.countSubrequest("friends.followers.count", fmt.Sprintf("/v1/users/%d/followers/count", userID)),
			c.countSubrequest("friends.followings.count", fmt.Sprintf("/v1/users/%d/followings/count", userID)),
			c.countSubrequest("friends.friends.count", fmt.Sprintf("/v1/users/%d/friends/count", userID)),
		},
		Aggregate: func(results []any) (any, error) {
			body, ok := results[0].(map[string]any)
			if !ok {
				return nil, &APIError{Message: "unexpected profile payload"}
			}
			profile, err := parseUserProfile(body)
			if err != nil {
				return nil, err
			}
			profile.FollowerCount = countResult(results[1])
			profile.FollowingCount = countResult(results[2])
			profile.FriendCount = countResult(results[3])
			return profile, nil
		},
	}

	value, err := c.invoke(ctx, op)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return UserProfile{}, &NotFoundError{Identifier: fmt.Sprintf("user %d", userID)}
		}
		return UserProfile{}, err
	}
	return value.(UserProfile), nil
}

// GetUsersBatch fetches up to 100 profiles in one call. Users absent
// from the response are omitted from the result, not treated as
// failures. Batch profiles may carry the simplified shape: a nil
// CreatedDate and zero social counts.
func (c *Client) GetUsersBatch(ctx context.Context, userIDs []int64) ([]UserProfile, error) {
	if len(userIDs) > maxBatchUsers {
		return nil, fmt.Errorf("orbix: batch limited to %d users", maxBatchUsers)
	}
	if len(userIDs) == 0 {
		return nil, nil
	}

	op := Operation{
		Name: "users.batch",
		Subrequests: []Subrequest{{
			Name:   "users.batch",
			Method: http.MethodPost,
			Group:  GroupUsers,
			Call: func(ctx context.Context) (any, error) {
				return c.transport.post(ctx, ServiceUsers, "/v1/users", map[string]any{
					"userIds":           userIDs,
					"excludeBannedUsers": true,
				})
			},
		}},
		Aggregate: func(results []any) (any, error) {
			body, ok := results[0].(map[string]any)
			if !ok {
				return nil, &APIError{Message: "unexpected batch payload"}
			}
			items := asSlice(body, "data")
			profiles := make([]UserProfile, 0, len(items))
			for _, item := range items {
				data, ok := item.(map[string]any)
				if !ok {
					continue
				}
				profile, err := parseUserProfile(data)
				if err != nil {
					continue
				}
				profiles = append(profiles, profile)
			}
			return profiles, nil
		},
	}

	value, err := c.invoke(ctx, op)
	if err != nil {
		return nil, err
	}
	return value.([]UserProfile), nil
}

// GetUserByUsername resolves a username to an ID, then fetches the full
// profile via GetUser.
func (c *Client) GetUserByUsername(ctx context.Context, username string) (UserProfile, error) {
	op := Operation{
		Name: "users.by_username",
		Subrequests: []Subrequest{{
			Name:   "users.by_username",
			Method: http.MethodPost,
			Group:  GroupUsers,
			Call: func(ctx context.Context) (any, error) {
				return c.transport.post(ctx, ServiceUsers, "/v1/usernames/users", map[string]any{
					"usernames":          []string{username},
					"excludeBannedUsers": true,
				})
			},
		}},
		Aggregate: func(results []any) (any, error) {
			body, ok := results[0].(map[string]any)
			if !ok {
				return nil, &APIError{Message: "unexpected username payload"}
			}
			items := asSlice(body, "data")
			if len(items) == 0 {
				return nil, &NotFoundError{Identifier: username}
			}
			first, ok := items[0].(map[string]any)
			if !ok {
				return nil, &NotFoundError{Identifier: username}
			}
			return asInt64(first, "id"), nil
		},
	}

	value, err := c.invoke(ctx, op)
	if err != nil {
		return UserProfile{}, err
	}
	return c.GetUser(ctx, value.(int64))
}

// GetUserAvatar fetches the three avatar thumbnails concurrently using
// the default sizes. A thumbnail that cannot be fetched degrades to an
// empty URL.
func (c *Client) GetUserAvatar(ctx context.Context, userID int64) (UserAvatar, error) {
	return c.GetUserAvatarSized(ctx, userID, "48x48", "48x48", "150x150")
}

// GetUserAvatarSized is GetUserAvatar with explicit thumbnail sizes.
func (c *Client) GetUserAvatarSized(ctx context.Context, userID int64, headshotSize, bustSize, fullBodySize string) (UserAvatar, error) {
	id := strconv.FormatInt(userID, 10)
	thumb := func(name, path, size string) Subrequest {
		return Subrequest{
			Name:     name,
			Method:   http.MethodGet,
			Group:    GroupThumbnails,
			Optional: true,
			Call: func(ctx context.Context) (any, error) {
				return c.transport.get(ctx, ServiceThumbnails, path, map[string]string{
					"userIds": id,
					"size":    size,
					"format":  "Png",
				})
			},
		}
	}

	op := Operation{
		Name: "thumbnails.avatar",
		CacheKey: CacheKey(http.MethodGet, c.transport.resolveURL(ServiceThumbnails, "/v1/users/"+id+"/avatar"), map[string]string{
			"headshot": headshotSize,
			"bust":     bustSize,
			"fullBody": fullBodySize,
		}),
		Subrequests: []Subrequest{
			thumb("thumbnails.headshot", "/v1/users/avatar-headshot", headshotSize),
			thumb("thumbnails.bust", "/v1/users/avatar-bust", bustSize),
			thumb("thumbnails.full_body", "/v1/users/avatar", fullBodySize),
		},
		Aggregate: func(results []any) (any, error) {
			return UserAvatar{
				UserID:      userID,
				HeadshotURL: thumbnailResult(results[0]),
				BustURL:     thumbnailResult(results[1]),
				FullBodyURL: thumbnailResult(results[2]),
			}, nil
		},
	}

	value, err := c.invoke(ctx, op)
	if err != nil {
		return UserAvatar{}, err
	}
	return value.(UserAvatar), nil
}

// GetUserFollowers lists a user's most recent followers, up to 100.
func (c *Client) GetUserFollowers(ctx context.Context, userID int64, limit int) ([]UserProfile, error) {
	return c.profileList(ctx, "friends.followers", fmt.Sprintf("/v1/users/%d/followers", userID), map[string]string{
		"limit":     strconv.Itoa(clampLimit(limit, 100)),
		"sortOrder": "Desc",
	})
}

// GetUserFollowing lists the users someone follows, up to 100.
func (c *Client) GetUserFollowing(ctx context.Context, userID int64, limit int) ([]UserProfile, error) {
	return c.profileList(ctx, "friends.followings", fmt.Sprintf("/v1/users/%d/followings", userID), map[string]string{
		"limit":     strconv.Itoa(clampLimit(limit, 100)),
		"sortOrder": "Desc",
	})
}

// GetUserFriends lists a user's friends, up to 100.
func (c *Client) GetUserFriends(ctx context.Context, userID int64, limit int) ([]UserProfile, error) {
	return c.profileList(ctx, "friends.friends", fmt.Sprintf("/v1/users/%d/friends", userID), map[string]string{
		"limit": strconv.Itoa(clampLimit(limit, 100)),
	})
}

// GetUserFollowerCount returns the number of followers.
func (c *Client) GetUserFollowerCount(ctx context.Context, userID int64) (int64, error) {
	return c.count(ctx, "friends.followers.count", fmt.Sprintf("/v1/users/%d/followers/count", userID))
}

// GetUserFollowingCount returns how many users someone follows.
func (c *Client) GetUserFollowingCount(ctx context.Context, userID int64) (int64, error) {
	return c.count(ctx, "friends.followings.count", fmt.Sprintf("/v1/users/%d/followings/count", userID))
}

// GetUserFriendCount returns the number of friends.
func (c *Client) GetUserFriendCount(ctx context.Context, userID int64) (int64, error) {
	return c.count(ctx, "friends.friends.count", fmt.Sprintf("/v1/users/%d/friends/count", userID))
}

// GetUserBadges returns one page of a user's badges. The limit is
// snapped to the nearest of 10, 25, 50, 100; sortOrder defaults to Asc;
// cursor is passed through opaquely. Malformed badge entries are skipped.
func (c *Client) GetUserBadges(ctx context.Context, userID int64, limit int, sortOrder, cursor string) (BadgePage, error) {
	if sortOrder == "" {
		sortOrder = "Asc"
	}
	params := map[string]string{
		"limit":     strconv.Itoa(snapLimit(limit)),
		"sortOrder": sortOrder,
	}
	if cursor != "" {
		params["cursor"] = cursor
	}

	path := fmt.Sprintf("/v1/users/%d/badges", userID)
	op := Operation{
		Name:     "badges.list",
		CacheKey: CacheKey(http.MethodGet, c.transport.resolveURL(ServiceBadges, path), params),
		Subrequests: []Subrequest{{
			Name:   "badges.list",
			Method: http.MethodGet,
			Group:  GroupBadges,
			Call: func(ctx context.Context) (any, error) {
				return c.transport.get(ctx, ServiceBadges, path, params)
			},
		}},
		Aggregate: func(results []any) (any, error) {
			body, ok := results[0].(map[string]any)
			if !ok {
				return nil, &APIError{Message: "unexpected badges payload"}
			}
			items := asSlice(body, "data")
			page := BadgePage{
				Badges:         make([]UserBadge, 0, len(items)),
				PreviousCursor: asString(body, "previousPageCursor"),
				NextCursor:     asString(body, "nextPageCursor"),
			}
			for _, item := range items {
				data, ok := item.(map[string]any)
				if !ok {
					continue
				}
				badge, err := parseUserBadge(data)
				if err != nil {
					c.logger.Warn().Err(err).Msg("skipping malformed badge entry")
					continue
				}
				page.Badges = append(page.Badges, badge)
			}
			return page, nil
		},
	}

	value, err := c.invoke(ctx, op)
	if err != nil {
		return BadgePage{}, err
	}
	return value.(BadgePage), nil
}

// GetUserPresence returns the presence of up to 20 users. Malformed
// entries are skipped.
func (c *Client) GetUserPresence(ctx context.Context, userIDs []int64) ([]UserPresence, error) {
	if len(userIDs) > maxPresenceUsers {
		return nil, fmt.Errorf("orbix: %d user IDs allowed per presence request", maxPresenceUsers)
	}
	if len(userIDs) == 0 {
		return nil, nil
	}

	op := Operation{
		Name: "presence.users",
		Subrequests: []Subrequest{{
			Name:   "presence.users",
			Method: http.MethodPost,
			Group:  GroupPresence,
			Call: func(ctx context.Context) (any, error) {
				return c.transport.post(ctx, ServicePresence, "/v1/presence/users", map[string]any{
					"userIds": userIDs,
				})
			},
		}},
		Aggregate: func(results []any) (any, error) {
			body, ok := results[0].(map[string]any)
			if !ok {
				return nil, &APIError{Message: "unexpected presence payload"}
			}
			items := asSlice(body, "userPresences")
			presences := make([]UserPresence, 0, len(items))
			for _, item := range items {
				data, ok := item.(map[string]any)
				if !ok {
					continue
				}
				presence, err := parseUserPresence(data)
				if err != nil {
					c.logger.Warn().Err(err).Msg("skipping malformed presence entry")
					continue
				}
				presences = append(presences, presence)
			}
			return presences, nil
		},
	}

	value, err := c.invoke(ctx, op)
	if err != nil {
		return nil, err
	}
	return value.([]UserPresence), nil
}

// GetUserPresenceSingle returns one user's presence, or nil when the
// upstream omitted it.
func (c *Client) GetUserPresenceSingle(ctx context.Context, userID int64) (*UserPresence, error) {
	presences, err := c.GetUserPresence(ctx, []int64{userID})
	if err != nil {
		return nil, err
	}
	if len(presences) == 0 {
		return nil, nil
	}
	return &presences[0], nil
}

// GetGameDetails returns details for up to 100 universes. Universes
// absent from the response are omitted.
func (c *Client) GetGameDetails(ctx context.Context, universeIDs []int64) ([]Game, error) {
	if len(universeIDs) > maxGameUniverses {
		return nil, fmt.Errorf("orbix: %d universe IDs allowed per request", maxGameUniverses)
	}
	if len(universeIDs) == 0 {
		return nil, nil
	}

	joined := make([]string, len(universeIDs))
	for i, id := range universeIDs {
		joined[i] = strconv.FormatInt(id, 10)
	}
	params := map[string]string{"universeIds": strings.Join(joined, ",")}

	op := Operation{
		Name:     "games.details",
		CacheKey: CacheKey(http.MethodGet, c.transport.resolveURL(ServiceGames, "/v1/games"), params),
		Subrequests: []Subrequest{{
			Name:   "games.details",
			Method: http.MethodGet,
			Group:  GroupGames,
			Call: func(ctx context.Context) (any, error) {
				return c.transport.get(ctx, ServiceGames, "/v1/games", params)
			},
		}},
		Aggregate: func(results []any) (any, error) {
			body, ok := results[0].(map[string]any)
			if !ok {
				return nil, &APIError{Message: "unexpected games payload"}
			}
			items := asSlice(body, "data")
			games := make([]Game, 0, len(items))
			for _, item := range items {
				data, ok := item.(map[string]any)
				if !ok {
					continue
				}
				game, err := parseGame(data)
				if err != nil {
					c.logger.Warn().Err(err).Msg("skipping malformed game entry")
					continue
				}
				games = append(games, game)
			}
			return games, nil
		},
	}

	value, err := c.invoke(ctx, op)
	if err != nil {
		return nil, err
	}
	return value.([]Game), nil
}

// GetGameDetailsSingle returns one universe's details, or nil when the
// upstream omitted it.
func (c *Client) GetGameDetailsSingle(ctx context.Context, universeID int64) (*Game, error) {
	games, err := c.GetGameDetails(ctx, []int64{universeID})
	if err != nil {
		return nil, err
	}
	if len(games) == 0 {
		return nil, nil
	}
	return &games[0], nil
}

// GetUserFavouriteGames returns one page of a user's favourite games.
// Upstream failures degrade to an empty page.
func (c *Client) GetUserFavouriteGames(ctx context.Context, userID int64, limit int, cursor string) (FavouriteGamePage, error) {
	params := map[string]string{
		"limit":     strconv.Itoa(clampLimit(limit, 50)),
		"sortOrder": "Desc",
	}
	if cursor != "" {
		params["cursor"] = cursor
	}

	path := fmt.Sprintf("/v2/users/%d/favourite/games", userID)
	op := Operation{
		Name:     "games.favourites",
		CacheKey: CacheKey(http.MethodGet, c.transport.resolveURL(ServiceGames, path), params),
		Subrequests: []Subrequest{{
			Name:     "games.favourites",
			Method:   http.MethodGet,
			Group:    GroupGames,
			Optional: true,
			Call: func(ctx context.Context) (any, error) {
				return c.transport.get(ctx, ServiceGames, path, params)
			},
		}},
		Aggregate: func(results []any) (any, error) {
			body, ok := results[0].(map[string]any)
			if !ok {
				return FavouriteGamePage{}, nil
			}
			items := asSlice(body, "data")
			page := FavouriteGamePage{
				Games:          make([]FavouriteGame, 0, len(items)),
				PreviousCursor: asString(body, "previousPageCursor"),
				NextCursor:     asString(body, "nextPageCursor"),
			}
			for _, item := range items {
				data, ok := item.(map[string]any)
				if !ok {
					continue
				}
				game, err := parseGame(data)
				if err != nil {
					c.logger.Warn().Err(err).Msg("skipping malformed favourite game entry")
					continue
				}
				page.Games = append(page.Games, FavouriteGame{Game: game})
			}
			return page, nil
		},
	}

	value, err := c.invoke(ctx, op)
	if err != nil {
		return FavouriteGamePage{}, err
	}
	return value.(FavouriteGamePage), nil
}

// GetUserCurrentlyWearing returns the assets a user is wearing.
// Upstream failures degrade to an empty list.
func (c *Client) GetUserCurrentlyWearing(ctx context.Context, userID int64) ([]WearingItem, error) {
	path := fmt.Sprintf("/v1/users/%d/currently-wearing", userID)
	op := Operation{
		Name:     "avatar.wearing",
		CacheKey: CacheKey(http.MethodGet, c.transport.resolveURL(ServiceAvatar, path), nil),
		Subrequests: []Subrequest{{
			Name:     "avatar.wearing",
			Method:   http.MethodGet,
			Group:    GroupAvatar,
			Optional: true,
			Call: func(ctx context.Context) (any, error) {
				return c.transport.get(ctx, ServiceAvatar, path, nil)
			},
		}},
		Aggregate: func(results []any) (any, error) {
			body, ok := results[0].(map[string]any)
			if !ok {
				return []WearingItem{}, nil
			}
			ids := asSlice(body, "assetIds")
			items := make([]WearingItem, 0, len(ids))
			for _, raw := range ids {
				if id, ok := raw.(float64); ok {
					items = append(items, WearingItem{AssetID: int64(id)})
				}
			}
			return items, nil
		},
	}

	value, err := c.invoke(ctx, op)
	if err != nil {
		return nil, err
	}
	return value.([]WearingItem), nil
}

// GetUserLimitedItems returns one page of a user's limited items.
// Upstream failures degrade to an empty page.
func (c *Client) GetUserLimitedItems(ctx context.Context, userID int64, limit int, cursor string) (LimitedItemPage, error) {
	params := map[string]string{
		"assetType": "All",
		"limit":     strconv.Itoa(snapLimit(limit)),
		"sortOrder": "Desc",
	}
	if cursor != "" {
		params["cursor"] = cursor
	}

	path := fmt.Sprintf("/v1/users/%d/assets/collectibles", userID)
	op := Operation{
		Name:     "inventory.collectibles",
		CacheKey: CacheKey(http.MethodGet, c.transport.resolveURL(ServiceInventory, path), params),
		Subrequests: []Subrequest{{
			Name:     "inventory.collectibles",
			Method:   http.MethodGet,
			Group:    GroupInventory,
			Optional: true,
			Call: func(ctx context.Context) (any, error) {
				return c.transport.get(ctx, ServiceInventory, path, params)
			},
		}},
		Aggregate: func(results []any) (any, error) {
			body, ok := results[0].(map[string]any)
			if !ok {
				return LimitedItemPage{}, nil
			}
			items := asSlice(body, "data")
			page := LimitedItemPage{
				Items:          make([]LimitedItem, 0, len(items)),
				PreviousCursor: asString(body, "previousPageCursor"),
				NextCursor:     asString(body, "nextPageCursor"),
			}
			for _, item := range items {
				if data, ok := item.(map[string]any); ok {
					page.Items = append(page.Items, parseLimitedItem(data))
				}
			}
			return page, nil
		},
	}

	value, err := c.invoke(ctx, op)
	if err != nil {
		return LimitedItemPage{}, err
	}
	return value.(LimitedItemPage), nil
}

// WarmCache eagerly populates the profile cache for the given user IDs,
// fetching them in concurrent sub-batches of 50. Per-batch failures are
// collected and joined; a partial failure does not stop other batches.
func (c *Client) WarmCache(ctx context.Context, userIDs []int64) error {
	if len(userIDs) == 0 {
		return nil
	}

	batches := (len(userIDs) + warmBatchSize - 1) / warmBatchSize
	errs := make([]error, batches)
	var wg sync.WaitGroup

	for i := 0; i < batches; i++ {
		start := i * warmBatchSize
		end := start + warmBatchSize
		if end > len(userIDs) {
			end = len(userIDs)
		}

		wg.Add(1)
		go func(i int, batch []int64) {
			defer wg.Done()
			profiles, err := c.GetUsersBatch(ctx, batch)
			if err != nil {
				errs[i] = fmt.Errorf("warm batch %d: %w", i+1, err)
				return
			}
			if c.cache == nil {
				return
			}
			for _, profile := range profiles {
				c.cache.Set(c.userCacheKey(profile.ID), profile)
			}
		}(i, userIDs[start:end])
	}
	wg.Wait()

	return errors.Join(errs...)
}

// Stats returns summary statistics over the most recent lastN attempt
// records; lastN <= 0 defaults to 100.
func (c *Client) Stats(lastN int) Stats {
	if lastN <= 0 {
		lastN = 100
	}
	return c.monitor.Stats(lastN)
}

// EndpointStats returns attempt statistics grouped by endpoint.
func (c *Client) EndpointStats() map[string]Stats {
	return c.monitor.EndpointStats()
}

// ClearStats resets the performance monitor.
func (c *Client) ClearStats() {
	c.monitor.Clear()
}

// AuditSummary aggregates the persisted attempt log by endpoint. It
// returns an error when no audit log is configured.
func (c *Client) AuditSummary(ctx context.Context) (map[string]AuditSummary, error) {
	if c.audit == nil {
		return nil, errors.New("orbix: no audit log configured")
	}
	return c.audit.EndpointSummary(ctx)
}

func (c *Client) userCacheKey(userID int64) string {
	return CacheKey(http.MethodGet, c.transport.resolveURL(ServiceUsers, fmt.Sprintf("/v1/users/%d", userID)), nil)
}

func (c *Client) countSubrequest(name, path string) Subrequest {
	return Subrequest{
		Name:     name,
		Method:   http.MethodGet,
		Group:    GroupCounts,
		Optional: true,
		Call: func(ctx context.Context) (any, error) {
			body, err := c.transport.get(ctx, ServiceFriends, path, nil)
			if err != nil {
				return nil, err
			}
			return asInt64(body, "count"), nil
		},
	}
}

// count runs a single cached count operation.
func (c *Client) count(ctx context.Context, name, path string) (int64, error) {
	op := Operation{
		Name:     name,
		CacheKey: CacheKey(http.MethodGet, c.transport.resolveURL(ServiceFriends, path), nil),
		Subrequests: []Subrequest{{
			Name:   name,
			Method: http.MethodGet,
			Group:  GroupCounts,
			Call: func(ctx context.Context) (any, error) {
				body, err := c.transport.get(ctx, ServiceFriends, path, nil)
				if err != nil {
					return nil, err
				}
				return asInt64(body, "count"), nil
			},
		}},
	}

	value, err := c.invoke(ctx, op)
	if err != nil {
		return 0, err
	}
	return value.(int64), nil
}

// profileList runs a cached list operation under the friends group and
// parses the items into profiles, skipping malformed entries.
func (c *Client) profileList(ctx context.Context, name, path string, params map[string]string) ([]UserProfile, error) {
	op := Operation{
		Name:     name,
		CacheKey: CacheKey(http.MethodGet, c.transport.resolveURL(ServiceFriends, path), params),
		Subrequests: []Subrequest{{
			Name:   name,
			Method: http.MethodGet,
			Group:  GroupFriends,
			Call: func(ctx context.Context) (any, error) {
				return c.transport.get(ctx, ServiceFriends, path, params)
			},
		}},
		Aggregate: func(results []any) (any, error) {
			body, ok := results[0].(map[string]any)
			if !ok {
				return nil, &APIError{Message: "unexpected list payload"}
			}
			items := asSlice(body, "data")
			profiles := make([]UserProfile, 0, len(items))
			for _, item := range items {
				data, ok := item.(map[string]any)
				if !ok {
					continue
				}
				profile, err := parseUserProfile(data)
				if err != nil {
					continue
				}
				profiles = append(profiles, profile)
			}
			return profiles, nil
		},
	}

	value, err := c.invoke(ctx, op)
	if err != nil {
		return nil, err
	}
	return value.([]UserProfile), nil
}

func countResult(v any) int64 {
	if n, ok := v.(int64); ok {
		return n
	}
	return 0
}

func thumbnailResult(v any) string {
	if m, ok := v.(map[string]any); ok {
		return thumbnailURL(m)
	}
	return ""
}

func clampLimit(limit, max int) int {
	if limit <= 0 {
		return 10
	}
	if limit > max {
		return max
	}
	return limit
}

// snapLimit snaps to the nearest of the upstream's allowed page sizes.
func snapLimit(limit int) int {
	allowed := []int{10, 25, 50, 100}
	best := allowed[0]
	for _, candidate := range allowed {
		if abs(candidate-limit) < abs(best-limit) {
			best = candidate
		}
	}
	return best
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
