package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/bwmarrin/discordgo"
	hr "github.com/julienschmidt/httprouter"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"darkcity.io/mapweb/auth"
	"darkcity.io/mapweb/common/logging"
	mw "darkcity.io/mapweb/common/middleware"
	rt "darkcity.io/mapweb/common/retry"
	cst "darkcity.io/mapweb/constants"
	pe "darkcity.io/mapweb/errors"
	st "darkcity.io/mapweb/stores"
)

// roleResolver is the slice of auth.Resolver the handlers depend on, narrowed to an
// interface so tests can substitute a fixed role table.
type roleResolver interface {
	Resolve(userID string) (auth.Role, *pe.Err)
	Invalidate(userID string)
}

// mapServer serves both the application API and the web shell of the city map.
type mapServer struct {
	Pins      st.PinStore
	Cfg       st.ConfigStore
	Assets    st.AssetStore
	Sessions  *auth.Sessions
	Resolver  roleResolver
	OAuth     *auth.OAuth
	Ping      func(ctx context.Context) error
	Metrics   *mw.Metrics
	Registry  *prometheus.Registry
	StaticDir string
	MapGLB    string
	Router    *hr.Router
}

func (s *mapServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.Router.ServeHTTP(w, r)
}

// start up application server and serve incoming requests
func serve() error {
	// read configuration from env vars
	viper.AutomaticEnv()
	setConfigDefaults()
	logging.SetupLog("MapWeb")

	// missing required configuration fails fast instead of degrading to an
	// insecure default
	for _, key := range []string{
		cst.EnvMongoURI,
		cst.EnvDiscordGuildID,
		cst.EnvDiscordBotToken,
		cst.EnvDiscordClientID,
		cst.EnvDiscordClientSecret,
		cst.EnvDiscordCallbackURL,
	} {
		if viper.GetString(key) == "" {
			return fmt.Errorf("%s is not set", key)
		}
	}

	dialCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	client, perr := st.Dial(dialCtx, viper.GetString(cst.EnvMongoURI))
	if perr != nil {
		return perr
	}
	defer client.Disconnect(context.Background())
	// verify the deployment is actually up; docker compose's depends_on only
	// guarantees the startup order of service containers, not of the services
	pingFn := func() error {
		ctx, pcancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer pcancel()
		return st.Ping(ctx, client)
	}
	if err := rt.Retry(pingFn,
		rt.WithTimeout(30*time.Second),
		rt.WithBaseDelay(200*time.Millisecond),
		rt.WithExp(2.0),
		rt.WithRetryOn(rt.IsDepOffline),
	); err != nil {
		return pe.NewDependencyFailure("failed verifying mongodb is reachable").WithCause(err)
	}
	db := client.Database(viper.GetString(cst.EnvMongoDatabase))

	assets, perr := st.NewGridFSAssetStore(db, viper.GetString(cst.EnvGridFSBucket))
	if perr != nil {
		return perr
	}

	discord, err := discordgo.New("Bot " + viper.GetString(cst.EnvDiscordBotToken))
	if err != nil {
		return pe.NewServiceFailure("failed creating discord client").WithCause(err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	svr := &mapServer{
		Pins:     st.NewMongoPinStore(db),
		Cfg:      st.NewMongoConfigStore(db),
		Assets:   assets,
		Sessions: auth.NewSessions(viper.GetString(cst.EnvSessionSecret)),
		Resolver: auth.NewResolver(discord, viper.GetString(cst.EnvDiscordGuildID), auth.RoleIDs{
			Admin:     viper.GetString(cst.EnvRoleIDAdmin),
			Moderator: viper.GetString(cst.EnvRoleIDModerator),
			Writer:    viper.GetString(cst.EnvRoleIDWriter),
			Reader:    viper.GetString(cst.EnvRoleIDReader),
		}),
		OAuth: auth.NewOAuth(
			viper.GetString(cst.EnvDiscordClientID),
			viper.GetString(cst.EnvDiscordClientSecret),
			viper.GetString(cst.EnvDiscordCallbackURL),
		),
		Ping:      func(ctx context.Context) error { return st.Ping(ctx, client) },
		Registry:  reg,
		Metrics:   mw.NewMetrics(reg),
		StaticDir: viper.GetString(cst.EnvStaticDir),
		MapGLB:    viper.GetString(cst.EnvMapGLBFilename),
	}
	svr.SetupMux()

	host, port := viper.GetString(cst.EnvAppHost), viper.GetString(cst.EnvAppPort)
	log.WithFields(log.Fields{
		"host": host,
		"port": port,
	}).Info("map server is starting up")
	httpSvr := &http.Server{
		Addr:        fmt.Sprintf("%s:%s", host, port),
		Handler:     svr,
		ReadTimeout: 10 * time.Second,
		// model streaming can take a while on slow links
		WriteTimeout:   120 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}
	return httpSvr.ListenAndServe()
}

func setConfigDefaults() {
	viper.SetDefault(cst.EnvAppPort, "3000")
	viper.SetDefault(cst.EnvMongoDatabase, "darkcity")
	viper.SetDefault(cst.EnvGridFSBucket, "darkCityAssets")
	viper.SetDefault(cst.EnvMapGLBFilename, "dark.city.map.glb")
	viper.SetDefault(cst.EnvStaticDir, "public")
	viper.SetDefault(cst.EnvReqBodySizeMaxByte, int64(1<<20))
	// known guild role ids; override via env when the guild layout changes
	viper.SetDefault(cst.EnvRoleIDAdmin, "1261095707494842519")
	viper.SetDefault(cst.EnvRoleIDModerator, "1261096385277722666")
	viper.SetDefault(cst.EnvRoleIDWriter, "1277450947664150538")
	viper.SetDefault(cst.EnvRoleIDReader, "1261096495860682873")
}
