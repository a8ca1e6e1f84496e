package auth

import (
	"errors"
	"net/http"
	"time"

	"github.com/bluele/gcache"
	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"

	pe "darkcity.io/mapweb/errors"
)

const (
	// role decisions are cached to bound outbound Discord call volume. Successful
	// lookups live longer than soft denials so that a user freshly added to the
	// guild does not stay locked out for long.
	roleCacheTTL    = 10 * time.Minute
	roleCacheNegTTL = 2 * time.Minute
	// LRU-bounded so the cache cannot grow with the number of distinct user ids
	roleCacheSize = 4096
)

// RoleIDs holds the guild role identifiers that map onto application roles. An empty
// id disables that tier.
type RoleIDs struct {
	Admin     string
	Moderator string
	Writer    string
	Reader    string
}

// GuildMemberAPI is the slice of the Discord REST surface the resolver needs.
// *discordgo.Session satisfies it.
type GuildMemberAPI interface {
	GuildMember(guildID, userID string, options ...discordgo.RequestOption) (*discordgo.Member, error)
}

// Resolver determines a user's highest-precedence role from their Discord guild
// membership, through a bounded TTL cache. Two requests racing for the same uncached
// user may both call Discord; the lookup is idempotent so the lost update only costs
// one extra outbound call.
type Resolver struct {
	API     GuildMemberAPI
	GuildID string
	Roles   RoleIDs
	TTL     time.Duration
	NegTTL  time.Duration
	cache   gcache.Cache
}

func NewResolver(api GuildMemberAPI, guildID string, roles RoleIDs) *Resolver {
	return &Resolver{
		API:     api,
		GuildID: guildID,
		Roles:   roles,
		TTL:     roleCacheTTL,
		NegTTL:  roleCacheNegTTL,
		cache:   gcache.New(roleCacheSize).LRU().Build(),
	}
}

// Resolve returns the user's role. Transient or credential failures from Discord
// surface as errors rather than silently degrading to the public role - masking them
// as "no permission" would mislead both users and operators.
func (rs *Resolver) Resolve(userID string) (Role, *pe.Err) {
	if userID == "" {
		return RolePublic, nil
	}
	if v, err := rs.cache.Get(userID); err == nil {
		return v.(Role), nil
	}
	clog := log.WithField("userID", userID)
	m, err := rs.API.GuildMember(rs.GuildID, userID)
	if err != nil {
		var rerr *discordgo.RESTError
		if errors.As(err, &rerr) && rerr.Response != nil {
			switch code := rerr.Response.StatusCode; {
			case code == http.StatusUnauthorized || code == http.StatusForbidden:
				clog.WithError(err).Error("discord rejected the bot credential")
				return RolePublic, pe.NewDependencyFailure("discord rejected the bot credential").WithCause(err)
			case code == http.StatusTooManyRequests || code >= 500:
				clog.WithError(err).Error("discord guild member lookup unavailable")
				return RolePublic, pe.NewDependencyFailure("discord guild member lookup unavailable").WithCause(err)
			default:
				// typically a 404: the user is simply not a guild member. Cache the
				// soft denial briefly to dampen retry storms.
				_ = rs.cache.SetWithExpire(userID, RolePublic, rs.NegTTL)
				return RolePublic, nil
			}
		}
		clog.WithError(err).Error("error calling discord guild member endpoint")
		return RolePublic, pe.NewDependencyFailure("error calling discord guild member endpoint").WithCause(err)
	}
	role := rs.highestRole(m.Roles)
	_ = rs.cache.SetWithExpire(userID, role, rs.TTL)
	return role, nil
}

// Invalidate drops the cached decision for a user, e.g. right after their guild
// roles changed.
func (rs *Resolver) Invalidate(userID string) {
	rs.cache.Remove(userID)
}

// highestRole intersects the member's role id list against the configured ids in
// fixed precedence order; the first match wins.
func (rs *Resolver) highestRole(memberRoles []string) Role {
	has := func(id string) bool {
		if id == "" {
			return false
		}
		for _, r := range memberRoles {
			if r == id {
				return true
			}
		}
		return false
	}
	switch {
	case has(rs.Roles.Admin):
		return RoleAdmin
	case has(rs.Roles.Moderator):
		return RoleModerator
	case has(rs.Roles.Writer):
		return RoleWriter
	case has(rs.Roles.Reader):
		return RoleReader
	default:
		return RolePublic
	}
}
