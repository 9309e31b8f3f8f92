package database

import (
	"context"
	"fmt"
	"net/url"

	surrealdb "github.com/surrealdb/surrealdb.go"
	"github.com/surrealdb/surrealdb.go/pkg/connection"
	"github.com/surrealdb/surrealdb.go/pkg/connection/gorillaws"
	"github.com/surrealdb/surrealdb.go/surrealcbor"
)

// NewSurrealDB connects to SurrealDB over websocket with the surrealcbor
// codec. The custom codec matters: without it time.Time and RecordID values
// are marshaled in a format the server rejects.
func NewSurrealDB(ctx context.Context, endpoint, namespace, db, username, password string) (*surrealdb.DB, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to parse SurrealDB endpoint: %w", err)
	}

	conf := connection.NewConfig(u)
	codec := surrealcbor.New()
	conf.Marshaler = codec
	conf.Unmarshaler = codec

	conn := gorillaws.New(conf)

	sdb, err := surrealdb.FromConnection(ctx, conn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to SurrealDB: %w", err)
	}

	if username != "" && password != "" {
		if _, err := sdb.SignIn(ctx, map[string]any{
			"user": username,
			"pass": password,
		}); err != nil {
			return nil, fmt.Errorf("failed to authenticate with SurrealDB: %w", err)
		}
	}

	if err := sdb.Use(ctx, namespace, db); err != nil {
		return nil, fmt.Errorf("failed to select namespace/database: %w", err)
	}

	return sdb, nil
}
