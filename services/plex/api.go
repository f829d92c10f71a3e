package plex

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli"

	"github.com/tvfiles-io/tracker/services/reconcile"
)

const (
	plexHostFlag    = "plex-host"
	plexPortFlag    = "plex-port"
	plexSecureFlag  = "plex-secure"
	plexTokenFlag   = "plex-token"
	plexTimeoutFlag = "plex-timeout"
)

func RegisterFlags(f []cli.Flag) []cli.Flag {
	return append(f,
		cli.StringFlag{
			Name:   plexHostFlag,
			Usage:  "plex media server host",
			EnvVar: "PLEX_HOST",
		},
		cli.IntFlag{
			Name:   plexPortFlag,
			Usage:  "plex media server port",
			EnvVar: "PLEX_PORT",
			Value:  32400,
		},
		cli.BoolFlag{
			Name:   plexSecureFlag,
			Usage:  "plex media server secure (https)",
			EnvVar: "PLEX_SECURE",
		},
		cli.StringFlag{
			Name:   plexTokenFlag,
			Usage:  "plex access token",
			EnvVar: "PLEX_TOKEN",
		},
		cli.DurationFlag{
			Name:   plexTimeoutFlag,
			Usage:  "plex request timeout",
			EnvVar: "PLEX_TIMEOUT",
			Value:  time.Minute,
		},
	)
}

type Api struct {
	url     string
	token   string
	timeout time.Duration
	cl      *http.Client
}

func New(c *cli.Context, cl *http.Client) *Api {
	host := c.String(plexHostFlag)
	token := c.String(plexTokenFlag)
	if host == "" || token == "" {
		return nil
	}
	protocol := "http"
	if c.Bool(plexSecureFlag) {
		protocol = "https"
	}
	u := fmt.Sprintf("%v://%v:%v", protocol, host, c.Int(plexPortFlag))
	log.Infof("plex api endpoint %v", u)
	return &Api{
		url:     u,
		token:   token,
		timeout: c.Duration(plexTimeoutFlag),
		cl:      cl,
	}
}

// Container fetches one library path and decodes its MediaContainer
// envelope. Any transport, auth or decode failure is fatal to the pass.
func (api *Api) Container(ctx context.Context, path string) (*MediaContainer, error) {
	ctx, cancel := context.WithTimeout(ctx, api.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, "GET", api.url+path, nil)
	if err != nil {
		return nil, errors.Wrap(err, "create request")
	}
	req.Header.Set("X-Plex-Token", api.token)

	resp, err := api.cl.Do(req)
	if err != nil {
		return nil, errors.Wrapf(reconcile.ErrSourceUnavailable, "plex request %s: %v", path, err)
	}
	defer func(Body io.ReadCloser) {
		_ = Body.Close()
	}(resp.Body)

	if resp.StatusCode >= 400 {
		return nil, errors.Wrapf(reconcile.ErrSourceUnavailable, "plex request %s: status %v", path, resp.Status)
	}
	mc := &MediaContainer{}
	if err := xml.NewDecoder(resp.Body).Decode(mc); err != nil {
		return nil, errors.Wrapf(reconcile.ErrSourceUnavailable, "decode plex response %s: %v", path, err)
	}
	return mc, nil
}

// TVSections returns the show-typed library sections.
func (api *Api) TVSections(ctx context.Context) ([]Directory, error) {
	mc, err := api.Container(ctx, "/library/sections")
	if err != nil {
		return nil, err
	}
	var sections []Directory
	for _, d := range mc.Directories {
		if d.Type == "show" {
			sections = append(sections, d)
		}
	}
	return sections, nil
}
