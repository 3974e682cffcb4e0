package database

import (
	"context"
)

type CreateUserParams struct {
	Username       string
	Name           string
	HashedPassword string
	Role           string
}

func (q *Queries) CreateUser(ctx context.Context, arg CreateUserParams) (User, error) {
	var u User
	err := q.db.QueryRow(ctx, `
		INSERT INTO users (username, name, hashed_password, role)
		VALUES ($1, $2, $3, $4)
		RETURNING id, username, name, hashed_password, role, is_active, created_at`,
		arg.Username, arg.Name, arg.HashedPassword, arg.Role,
	).Scan(&u.ID, &u.Username, &u.Name, &u.HashedPassword, &u.Role, &u.IsActive, &u.CreatedAt)
	return u, err
}

func (q *Queries) GetUserByUsername(ctx context.Context, username string) (User, error) {
	var u User
	err := q.db.QueryRow(ctx, `
		SELECT id, username, name, hashed_password, role, is_active, created_at
		FROM users WHERE username = $1 AND is_active`,
		username,
	).Scan(&u.ID, &u.Username, &u.Name, &u.HashedPassword, &u.Role, &u.IsActive, &u.CreatedAt)
	return u, err
}
