package auth

import (
	"context"

	"github.com/bwmarrin/discordgo"
	"golang.org/x/oauth2"

	pe "darkcity.io/mapweb/errors"
	md "darkcity.io/mapweb/models"
)

var discordEndpoint = oauth2.Endpoint{
	AuthURL:  "https://discord.com/api/oauth2/authorize",
	TokenURL: "https://discord.com/api/oauth2/token",
}

// OAuth drives the Discord authorization-code login flow. Only the identify scope is
// requested; guild roles are read separately with the bot credential.
type OAuth struct {
	cfg *oauth2.Config
}

func NewOAuth(clientID, clientSecret, callbackURL string) *OAuth {
	return &OAuth{cfg: &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  callbackURL,
		Scopes:       []string{"identify"},
		Endpoint:     discordEndpoint,
	}}
}

// AuthCodeURL returns the provider URL to send the browser to.
func (o *OAuth) AuthCodeURL(state string) string {
	return o.cfg.AuthCodeURL(state)
}

// Exchange swaps the callback code for an access token.
func (o *OAuth) Exchange(ctx context.Context, code string) (*oauth2.Token, *pe.Err) {
	tok, err := o.cfg.Exchange(ctx, code)
	if err != nil {
		return nil, pe.NewDependencyFailure("error exchanging oauth code with discord").WithCause(err)
	}
	return tok, nil
}

// FetchProfile reads the authenticated user's profile with their bearer token.
func (o *OAuth) FetchProfile(accessToken string) (*md.Profile, *pe.Err) {
	s, err := discordgo.New("Bearer " + accessToken)
	if err != nil {
		return nil, pe.NewServiceFailure("error creating discord client").WithCause(err)
	}
	u, err := s.User("@me")
	if err != nil {
		return nil, pe.NewDependencyFailure("error fetching discord profile").WithCause(err)
	}
	return &md.Profile{
		ID:            u.ID,
		Username:      u.Username,
		Discriminator: u.Discriminator,
		Avatar:        u.Avatar,
	}, nil
}
