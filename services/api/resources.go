package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"

	"campusbook/models"
)

type resourceEnvelope struct {
	Data *models.Resource `json:"data"`
	models.Resource
}

// GetResource fetches resource metadata from the directory service.
func (c *Client) GetResource(ctx context.Context, token, id string) (*models.Resource, error) {
	const op = "get resource"
	status, raw, err := c.doJSON(ctx, op, http.MethodGet, "/resources/"+url.PathEscape(id), token, nil)
	if err != nil {
		return nil, err
	}
	switch status {
	case http.StatusOK:
	case http.StatusNotFound:
		return nil, ErrResourceNotFound
	default:
		return nil, &Error{Op: op, Kind: KindStatus, StatusCode: status, Message: serverMessage(raw)}
	}

	var env resourceEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, &Error{Op: op, Kind: KindDecode, StatusCode: status, Err: err}
	}
	if env.Data != nil {
		return env.Data, nil
	}
	if env.Resource.ID == "" {
		return nil, ErrResourceNotFound
	}
	res := env.Resource
	return &res, nil
}

type resourceList struct {
	Data []models.Resource `json:"data"`
}

// ListResources returns the active bookable resources, optionally filtered by type.
func (c *Client) ListResources(ctx context.Context, token, resourceType string) ([]models.Resource, error) {
	const op = "list resources"
	path := "/resources"
	if resourceType != "" {
		path += "?" + url.Values{"type": {resourceType}}.Encode()
	}
	status, raw, err := c.doJSON(ctx, op, http.MethodGet, path, token, nil)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, &Error{Op: op, Kind: KindStatus, StatusCode: status, Message: serverMessage(raw)}
	}

	var list resourceList
	if err := json.Unmarshal(raw, &list); err != nil || list.Data == nil {
		var bare []models.Resource
		if berr := json.Unmarshal(raw, &bare); berr != nil {
			return nil, &Error{Op: op, Kind: KindDecode, StatusCode: status, Err: berr}
		}
		list.Data = bare
	}

	active := make([]models.Resource, 0, len(list.Data))
	for _, r := range list.Data {
		if r.IsActive {
			active = append(active, r)
		}
	}
	return active, nil
}
