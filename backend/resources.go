package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/jrsteele09/atelier-console/session"
)

// Resource is a REST collection exposed by the maintenance backend
type Resource string

const (
	ResourceAteliers    Resource = "ateliers"
	ResourceEquipements Resource = "equipements"
	ResourceFormulaires Resource = "formulaires"
	ResourceStocks      Resource = "stocks"
	ResourceUsers       Resource = "connexusers"
)

// Resources lists every collection the console reads
var Resources = []Resource{ResourceAteliers, ResourceEquipements, ResourceFormulaires, ResourceStocks, ResourceUsers}

func (r Resource) Valid() bool {
	for _, known := range Resources {
		if r == known {
			return true
		}
	}
	return false
}

// Record is one row of a collection as the backend serialises it
type Record map[string]any

// List fetches every record of resource
func (c *Client) List(ctx context.Context, sess session.Session, resource Resource) ([]Record, error) {
	if !resource.Valid() {
		return nil, fmt.Errorf("[Client List] %w: %q", ErrUnsupportedResource, resource)
	}

	resp, err := c.do(ctx, sess, http.MethodGet, c.url(string(resource)))
	if err != nil {
		return nil, fmt.Errorf("[Client List] %s: %w", resource, err)
	}
	defer resp.Body.Close()

	var records []Record
	dec := json.NewDecoder(resp.Body)
	dec.UseNumber()
	if err := dec.Decode(&records); err != nil {
		return nil, fmt.Errorf("[Client List] %s: %w: %w", resource, ErrUnexpectedResponse, err)
	}
	return records, nil
}

// Count is the number of records in resource
func (c *Client) Count(ctx context.Context, sess session.Session, resource Resource) (int, error) {
	records, err := c.List(ctx, sess, resource)
	if err != nil {
		return 0, err
	}
	return len(records), nil
}

// Delete removes the record with id from resource
func (c *Client) Delete(ctx context.Context, sess session.Session, resource Resource, id string) error {
	if !resource.Valid() {
		return fmt.Errorf("[Client Delete] %w: %q", ErrUnsupportedResource, resource)
	}
	if id == "" {
		return fmt.Errorf("[Client Delete] %s: %w", resource, ErrNotFound)
	}

	resp, err := c.do(ctx, sess, http.MethodDelete, c.url(string(resource), url.PathEscape(id)))
	if err != nil {
		return fmt.Errorf("[Client Delete] %s/%s: %w", resource, id, err)
	}
	drain(resp.Body)
	return resp.Body.Close()
}

// do sends an authenticated request and maps failure statuses to errors. On success the
// caller owns the response body.
func (c *Client) do(ctx context.Context, sess session.Session, method, target string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, target, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(Decorate(req, sess, c.scheme))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNetwork, err)
	}

	if resp.StatusCode >= 200 && resp.StatusCode <= 299 {
		return resp, nil
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return nil, ErrSessionRejected
	case resp.StatusCode == http.StatusNotFound:
		return nil, ErrNotFound
	case resp.StatusCode >= 500:
		return nil, fmt.Errorf("%w: %s", ErrNetwork, statusError(resp))
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnexpectedResponse, statusError(resp))
	}
}
