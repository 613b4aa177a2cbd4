package repository

import (
	"github.com/Masterminds/squirrel"
)

// psql builds statements with Postgres placeholders.
var psql = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
