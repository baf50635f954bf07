package repos

import (
	"context"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/pkg/errors"
	_ "modernc.org/sqlite"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// OpenDB connects, pings and ensures the schema. sqlite databases are
// limited to one connection so that ":memory:" stays a single database,
// and foreign keys are enabled on it.
func OpenDB(driver, dsn string) (*sqlx.DB, error) {
	switch driver {
	case DriverSQLite:
		if !strings.Contains(dsn, "_pragma=foreign_keys") {
			sep := "?"
			if strings.Contains(dsn, "?") {
				sep = "&"
			}
			dsn += sep + "_pragma=foreign_keys(1)"
		}
	case DriverPostgres:
	default:
		return nil, errors.Errorf("unsupported db driver %q", driver)
	}

	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, errors.Wrap(err, "open db")
	}
	if driver == DriverSQLite {
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(5 * time.Minute)
	}
	if err = db.Ping(); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "ping db")
	}
	if err := ensureSchema(db); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "ensure schema")
	}
	return db, nil
}

func ensureSchema(db *sqlx.DB) error {
	schema := sqliteSchema
	if db.DriverName() == DriverPostgres {
		schema = postgresSchema
	}
	_, err := db.Exec(schema)
	return err
}

// withTx runs fn inside a transaction, committing when fn returns nil.
func withTx(ctx context.Context, db *sqlx.DB, fn func(tx *sqlx.Tx) error) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin tx")
	}
	defer func() { _ = tx.Rollback() }()

	if err := fn(tx); err != nil {
		return err
	}
	return errors.Wrap(tx.Commit(), "commit tx")
}

const sqliteSchema = `
PRAGMA foreign_keys = ON;

-- Business accounts
CREATE TABLE IF NOT EXISTS usuarios(
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  nombre_negocio TEXT NOT NULL UNIQUE,
  correo TEXT NOT NULL UNIQUE,
  telefono TEXT NOT NULL UNIQUE,
  direccion TEXT NOT NULL,
  password_hash TEXT NOT NULL,
  is_active INTEGER NOT NULL DEFAULT 1,
  is_superuser INTEGER NOT NULL DEFAULT 0,
  fecha_registro DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_usuarios_fecha_registro ON usuarios(fecha_registro);

-- Auth tokens, one per account
CREATE TABLE IF NOT EXISTS tokens(
  token TEXT PRIMARY KEY,
  user_id INTEGER NOT NULL UNIQUE REFERENCES usuarios(id),
  created_at DATETIME NOT NULL
);

-- Categories
CREATE TABLE IF NOT EXISTS categorias(
  id_categoria INTEGER PRIMARY KEY AUTOINCREMENT,
  nombre TEXT NOT NULL UNIQUE,
  descripcion TEXT
);

-- Products
CREATE TABLE IF NOT EXISTS productos(
  id_producto INTEGER PRIMARY KEY AUTOINCREMENT,
  nombre TEXT NOT NULL,
  descripcion TEXT NOT NULL,
  precio NUMERIC NOT NULL CHECK (precio > 0),
  cantidad INTEGER NOT NULL CHECK (cantidad >= 0),
  fecha_creacion DATETIME NOT NULL,
  fecha_vendido DATETIME,
  estado TEXT NOT NULL DEFAULT 'Nuevo' CHECK (estado IN ('Nuevo','Usado')),
  vendido INTEGER NOT NULL DEFAULT 0,
  id_negocio INTEGER NOT NULL REFERENCES usuarios(id),
  id_categoria INTEGER NOT NULL REFERENCES categorias(id_categoria),
  imagen TEXT,
  CHECK ((vendido = 1) = (fecha_vendido IS NOT NULL))
);
CREATE INDEX IF NOT EXISTS idx_productos_negocio   ON productos(id_negocio);
CREATE INDEX IF NOT EXISTS idx_productos_categoria ON productos(id_categoria);
CREATE INDEX IF NOT EXISTS idx_productos_creacion  ON productos(fecha_creacion);

-- Product images
CREATE TABLE IF NOT EXISTS imagenes_productos(
  id_imagen INTEGER PRIMARY KEY AUTOINCREMENT,
  id_producto INTEGER NOT NULL REFERENCES productos(id_producto),
  imagen_url TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_imagenes_producto ON imagenes_productos(id_producto);
`

const postgresSchema = `
CREATE TABLE IF NOT EXISTS usuarios(
  id BIGSERIAL PRIMARY KEY,
  nombre_negocio VARCHAR(200) NOT NULL CONSTRAINT usuarios_nombre_negocio_key UNIQUE,
  correo VARCHAR(254) NOT NULL CONSTRAINT usuarios_correo_key UNIQUE,
  telefono VARCHAR(10) NOT NULL CONSTRAINT usuarios_telefono_key UNIQUE,
  direccion VARCHAR(255) NOT NULL,
  password_hash TEXT NOT NULL,
  is_active BOOLEAN NOT NULL DEFAULT TRUE,
  is_superuser BOOLEAN NOT NULL DEFAULT FALSE,
  fecha_registro TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_usuarios_fecha_registro ON usuarios(fecha_registro);

CREATE TABLE IF NOT EXISTS tokens(
  token TEXT PRIMARY KEY,
  user_id BIGINT NOT NULL CONSTRAINT tokens_user_id_key UNIQUE REFERENCES usuarios(id),
  created_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS categorias(
  id_categoria BIGSERIAL PRIMARY KEY,
  nombre VARCHAR(50) NOT NULL CONSTRAINT categorias_nombre_key UNIQUE,
  descripcion TEXT
);

CREATE TABLE IF NOT EXISTS productos(
  id_producto BIGSERIAL PRIMARY KEY,
  nombre VARCHAR(100) NOT NULL,
  descripcion TEXT NOT NULL,
  precio NUMERIC(10,2) NOT NULL CHECK (precio > 0),
  cantidad INTEGER NOT NULL CHECK (cantidad >= 0),
  fecha_creacion TIMESTAMPTZ NOT NULL,
  fecha_vendido TIMESTAMPTZ,
  estado VARCHAR(20) NOT NULL DEFAULT 'Nuevo' CHECK (estado IN ('Nuevo','Usado')),
  vendido BOOLEAN NOT NULL DEFAULT FALSE,
  id_negocio BIGINT NOT NULL REFERENCES usuarios(id),
  id_categoria BIGINT NOT NULL REFERENCES categorias(id_categoria),
  imagen TEXT,
  CHECK (vendido = (fecha_vendido IS NOT NULL))
);
CREATE INDEX IF NOT EXISTS idx_productos_negocio   ON productos(id_negocio);
CREATE INDEX IF NOT EXISTS idx_productos_categoria ON productos(id_categoria);
CREATE INDEX IF NOT EXISTS idx_productos_creacion  ON productos(fecha_creacion);

CREATE TABLE IF NOT EXISTS imagenes_productos(
  id_imagen BIGSERIAL PRIMARY KEY,
  id_producto BIGINT NOT NULL REFERENCES productos(id_producto),
  imagen_url VARCHAR(500) NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_imagenes_producto ON imagenes_productos(id_producto);
`
