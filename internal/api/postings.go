package api

import (
	"context"
	"fmt"

	"github.com/dondeestamimascota/mascotas/internal/model"
)

func (c *Client) Postings(ctx context.Context) ([]model.Posting, error) {
	var out []model.Posting
	if err := c.do(ctx, "GET", "/publicaciones", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Posting(ctx context.Context, id int64) (*model.Posting, error) {
	var p model.Posting
	if err := c.do(ctx, "GET", fmt.Sprintf("/publicaciones/%d", id), nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *Client) PostingsByAuthor(ctx context.Context, authorID int64) ([]model.Posting, error) {
	var out []model.Posting
	if err := c.do(ctx, "GET", fmt.Sprintf("/publicaciones/autor/%d", authorID), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CreatePosting(ctx context.Context, authorID int64, d model.PostingDraft) (*model.Posting, error) {
	var p model.Posting
	if err := c.do(ctx, "POST", fmt.Sprintf("/publicaciones/%d", authorID), d, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *Client) EditPosting(ctx context.Context, id int64, d model.PostingDraft) (*model.Posting, error) {
	var p model.Posting
	if err := c.do(ctx, "PUT", fmt.Sprintf("/publicaciones/%d", id), d, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *Client) DeletePosting(ctx context.Context, id int64) error {
	return c.do(ctx, "DELETE", fmt.Sprintf("/publicaciones/%d", id), nil, nil)
}

func (c *Client) Sightings(ctx context.Context) ([]model.Sighting, error) {
	var out []model.Sighting
	if err := c.do(ctx, "GET", "/avistamientos", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CreateSighting(ctx context.Context, reporterID int64, d model.SightingDraft) (*model.Sighting, error) {
	var s model.Sighting
	if err := c.do(ctx, "POST", fmt.Sprintf("/avistamientos/%d", reporterID), d, &s); err != nil {
		return nil, err
	}
	return &s, nil
}
