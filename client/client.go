package client

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sardine-ai/flexpreset/model"
	"github.com/sardine-ai/flexpreset/preset"
	"github.com/sardine-ai/flexpreset/source"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

var (
	ErrPresetNotFound = errors.New("preset not found")
	ErrSetupNotFound  = errors.New("setup not found")
	ErrParamNotFound  = errors.New("parameter not found")
	ErrParamType      = errors.New("parameter has a different type")
	ErrInvalidRefresh = errors.New("refresh interval must be positive")
)

// Client reads resolved plot setups from a repository that it keeps
// refreshing in the background.
type Client struct {
	Repository      source.Repository
	RefreshInterval time.Duration
	cancel          context.CancelFunc
	wg              sync.WaitGroup
}

// NewClient refreshes the repository once and then keeps refreshing it
// every refreshInterval until Close is called. The error of the first
// refresh is returned together with the client, which stays usable.
// A non-positive refreshInterval returns ErrInvalidRefresh and no client.
func NewClient(ctx context.Context, repository source.Repository, refreshInterval time.Duration) (*Client, error) {
	if refreshInterval <= 0 {
		return nil, fmt.Errorf("%w: got %s", ErrInvalidRefresh, refreshInterval)
	}
	ctx, cancel := context.WithCancel(ctx)
	client := &Client{
		Repository:      repository,
		RefreshInterval: refreshInterval,
		cancel:          cancel,
	}

	err := client.Repository.Refresh()
	if err != nil {
		logrus.WithError(err).WithField("repository", repository.GetName()).Error("error refreshing repository")
	}

	client.wg.Add(1)
	go func() {
		defer client.wg.Done()
		refresh(ctx, client)
	}()
	return client, err
}

// refresh periodically refreshes the repository until ctx is done.
func refresh(ctx context.Context, client *Client) {
	ticker := time.NewTicker(client.RefreshInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if err := client.Repository.Refresh(); err != nil {
				logrus.WithError(err).WithField("repository", client.Repository.GetName()).Error("error refreshing repository")
			}
		case <-ctx.Done():
			return
		}
	}
}

// Close stops the background refresh and waits for it to return.
func (c *Client) Close() {
	if c.cancel != nil {
		c.cancel()
	}
	c.wg.Wait()
}

// GetPreset returns the preset file with the given name.
func (c *Client) GetPreset(name string) (model.PresetFile, error) {
	file, ok := c.Repository.GetData(name)
	if !ok {
		return model.PresetFile{}, fmt.Errorf("%w: '%s'", ErrPresetNotFound, name)
	}
	return file, nil
}

// GetSetups resolves the preset with the given name into its validated,
// normalized setups.
func (c *Client) GetSetups(name string) ([]model.Setup, error) {
	file, err := c.GetPreset(name)
	if err != nil {
		return nil, err
	}
	return preset.LoadSetups(file)
}

func (c *Client) setup(presetName, setupName string) (model.Setup, error) {
	setups, err := c.GetSetups(presetName)
	if err != nil {
		return model.Setup{}, err
	}
	for _, s := range setups {
		if s.Name == setupName {
			return s, nil
		}
	}
	return model.Setup{}, fmt.Errorf("%w: '%s' in preset '%s'", ErrSetupNotFound, setupName, presetName)
}

// GetSetup decodes the parameters of one setup of a preset into out, which
// must be a non-nil pointer. Struct fields are matched by their yaml tags.
func (c *Client) GetSetup(presetName, setupName string, out interface{}) error {
	s, err := c.setup(presetName, setupName)
	if err != nil {
		return err
	}
	marshal, err := yaml.Marshal(s.Params)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(marshal, out)
}

func (c *Client) param(presetName, setupName, key string) (interface{}, error) {
	s, err := c.setup(presetName, setupName)
	if err != nil {
		return nil, err
	}
	value, ok := s.Params[key]
	if !ok {
		return nil, fmt.Errorf("%w: '%s' in setup '%s'", ErrParamNotFound, key, setupName)
	}
	return value, nil
}

// GetString returns a string parameter of a setup.
func (c *Client) GetString(presetName, setupName, key string) (string, error) {
	value, err := c.param(presetName, setupName, key)
	if err != nil {
		return "", err
	}
	s, ok := value.(string)
	if !ok {
		return "", fmt.Errorf("%w: '%s' is not a string", ErrParamType, key)
	}
	return s, nil
}

// GetStrings returns a string list parameter of a setup.
func (c *Client) GetStrings(presetName, setupName, key string) ([]string, error) {
	value, err := c.param(presetName, setupName, key)
	if err != nil {
		return nil, err
	}
	s, ok := value.([]string)
	if !ok {
		return nil, fmt.Errorf("%w: '%s' is not a list of strings", ErrParamType, key)
	}
	return s, nil
}

// GetInt returns an integer parameter of a setup. Integer lists holding a
// single value are accepted.
func (c *Client) GetInt(presetName, setupName, key string) (int, error) {
	value, err := c.param(presetName, setupName, key)
	if err != nil {
		return 0, err
	}
	switch v := value.(type) {
	case int:
		return v, nil
	case []int:
		if len(v) == 1 {
			return v[0], nil
		}
	}
	return 0, fmt.Errorf("%w: '%s' is not a single integer", ErrParamType, key)
}

// GetInts returns an integer list parameter of a setup.
func (c *Client) GetInts(presetName, setupName, key string) ([]int, error) {
	value, err := c.param(presetName, setupName, key)
	if err != nil {
		return nil, err
	}
	i, ok := value.([]int)
	if !ok {
		return nil, fmt.Errorf("%w: '%s' is not a list of integers", ErrParamType, key)
	}
	return i, nil
}

// GetBool returns a boolean parameter of a setup.
func (c *Client) GetBool(presetName, setupName, key string) (bool, error) {
	value, err := c.param(presetName, setupName, key)
	if err != nil {
		return false, err
	}
	b, ok := value.(bool)
	if !ok {
		return false, fmt.Errorf("%w: '%s' is not a bool", ErrParamType, key)
	}
	return b, nil
}

// GetFloat returns a float parameter of a setup.
func (c *Client) GetFloat(presetName, setupName, key string) (float64, error) {
	value, err := c.param(presetName, setupName, key)
	if err != nil {
		return 0, err
	}
	f, ok := value.(float64)
	if !ok {
		return 0, fmt.Errorf("%w: '%s' is not a float", ErrParamType, key)
	}
	return f, nil
}
