package sonarr

import (
	"context"
	"encoding/json"
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
	sonarrHostFlag             = "sonarr-host"
	sonarrPortFlag             = "sonarr-port"
	sonarrSecureFlag           = "sonarr-secure"
	sonarrApiKeyFlag           = "sonarr-api-key"
	sonarrTimeoutFlag          = "sonarr-timeout"
	sonarrUnresolvedPolicyFlag = "sonarr-unresolved-policy"
)

func RegisterFlags(f []cli.Flag) []cli.Flag {
	return append(f,
		cli.StringFlag{
			Name:   sonarrHostFlag,
			Usage:  "sonarr host",
			EnvVar: "SONARR_HOST",
		},
		cli.IntFlag{
			Name:   sonarrPortFlag,
			Usage:  "sonarr port",
			EnvVar: "SONARR_PORT",
			Value:  8989,
		},
		cli.BoolFlag{
			Name:   sonarrSecureFlag,
			Usage:  "sonarr secure (https)",
			EnvVar: "SONARR_SECURE",
		},
		cli.StringFlag{
			Name:   sonarrApiKeyFlag,
			Usage:  "sonarr api key",
			EnvVar: "SONARR_API_KEY",
		},
		cli.DurationFlag{
			Name:   sonarrTimeoutFlag,
			Usage:  "sonarr request timeout",
			EnvVar: "SONARR_TIMEOUT",
			Value:  30 * time.Second,
		},
		cli.StringFlag{
			Name:   sonarrUnresolvedPolicyFlag,
			Usage:  "how to track files without a resolvable episode link (insert-unlinked or drop-unresolved)",
			EnvVar: "SONARR_UNRESOLVED_POLICY",
			Value:  "insert-unlinked",
		},
	)
}

// Policy reads the unresolved-link policy from the command line.
func Policy(c *cli.Context) (reconcile.Policy, error) {
	return reconcile.ParsePolicy(c.String(sonarrUnresolvedPolicyFlag))
}

type Api struct {
	url     string
	key     string
	timeout time.Duration
	cl      *http.Client
}

func New(c *cli.Context, cl *http.Client) *Api {
	host := c.String(sonarrHostFlag)
	key := c.String(sonarrApiKeyFlag)
	if host == "" || key == "" {
		return nil
	}
	protocol := "http"
	if c.Bool(sonarrSecureFlag) {
		protocol = "https"
	}
	u := fmt.Sprintf("%v://%v:%v", protocol, host, c.Int(sonarrPortFlag))
	log.Infof("sonarr api endpoint %v", u)
	return &Api{
		url:     u,
		key:     key,
		timeout: c.Duration(sonarrTimeoutFlag),
		cl:      cl,
	}
}

func (api *Api) get(ctx context.Context, path string, out any) error {
	ctx, cancel := context.WithTimeout(ctx, api.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, "GET", api.url+"/api/v3/"+path, nil)
	if err != nil {
		return errors.Wrap(err, "create request")
	}
	req.Header.Set("X-Api-Key", api.key)

	resp, err := api.cl.Do(req)
	if err != nil {
		return errors.Wrapf(reconcile.ErrSourceUnavailable, "sonarr request %s: %v", path, err)
	}
	defer func(Body io.ReadCloser) {
		_ = Body.Close()
	}(resp.Body)

	if resp.StatusCode >= 400 {
		return errors.Wrapf(reconcile.ErrSourceUnavailable, "sonarr request %s: status %v", path, resp.Status)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.Wrapf(reconcile.ErrSourceUnavailable, "decode sonarr response %s: %v", path, err)
	}
	return nil
}

// Series returns every tracked series.
func (api *Api) Series(ctx context.Context) ([]Series, error) {
	var series []Series
	if err := api.get(ctx, "series", &series); err != nil {
		return nil, err
	}
	return series, nil
}

// Episodes returns every known episode of a series.
func (api *Api) Episodes(ctx context.Context, seriesID int64) ([]Episode, error) {
	var episodes []Episode
	if err := api.get(ctx, fmt.Sprintf("episode?seriesId=%d", seriesID), &episodes); err != nil {
		return nil, err
	}
	return episodes, nil
}

// EpisodeFiles returns every on-disk file of a series.
func (api *Api) EpisodeFiles(ctx context.Context, seriesID int64) ([]EpisodeFile, error) {
	var files []EpisodeFile
	if err := api.get(ctx, fmt.Sprintf("episodefile?seriesId=%d", seriesID), &files); err != nil {
		return nil, err
	}
	return files, nil
}
