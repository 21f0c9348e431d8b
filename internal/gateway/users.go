package gateway

import (
	"context"
	"net/url"

	"swiss-hub/internal/models"
)

type restUsers struct{ c *Client }

func (a *restUsers) ByExternalRef(ctx context.Context, ref string) (*models.User, error) {
	var rows []models.UserRow
	if err := a.c.list(ctx, "users.byExternalRef", "users", url.Values{"external_ref": {ref}}, &rows); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	u := userFromRow(rows[0])
	return &u, nil
}

func (a *restUsers) Create(ctx context.Context, in models.NewUser) (*models.User, error) {
	if err := models.Validate(in); err != nil {
		return nil, err
	}
	var out models.UserRow
	body := row{
		"external_ref": in.ExternalRef,
		"email":        in.Email,
		"name":         in.Name,
		"role":         string(in.Role),
	}
	if err := a.c.create(ctx, "users.create", "users", body, &out); err != nil {
		return nil, err
	}
	u := userFromRow(out)
	return &u, nil
}

func (a *restUsers) UpdateRole(ctx context.Context, id string, role models.Role) (*models.User, error) {
	var out models.UserRow
	if err := a.c.patch(ctx, "users.updateRole", "users", id, row{"role": string(role)}, &out); err != nil {
		return nil, err
	}
	u := userFromRow(out)
	return &u, nil
}

func (a *restUsers) List(ctx context.Context) ([]models.User, error) {
	var rows []models.UserRow
	if err := a.c.list(ctx, "users.list", "users", url.Values{"order": {"created_at.desc"}}, &rows); err != nil {
		return nil, err
	}
	return mapRows(rows, userFromRow), nil
}
