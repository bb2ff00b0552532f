// Package classpath indexes the class files reachable from directories and
// JARs into a SQLite database and answers class-hierarchy queries from the
// index, so frame synthesis can run against a real application classpath.
package classpath

import (
	"archive/zip"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	_ "modernc.org/sqlite"

	"github.com/x4e/classfile/classfile"
	"github.com/x4e/classfile/hierarchy"
)

// ErrClassNotFound indicates the named class is not in the index.
var ErrClassNotFound = errors.New("class not found on classpath")

// Record is one indexed class.
type Record struct {
	Name       string
	SuperName  string
	Interfaces []string
	Access     classfile.AccessFlags
	Major      uint16
	Source     string // directory file or JAR path the class came from
	SHA256     string
}

// Index is a SQLite-backed class index. Safe for concurrent use; writes are
// serialized, hierarchy queries run against a cached in-memory table that is
// rebuilt after additions.
type Index struct {
	db *sql.DB

	mu    sync.Mutex
	table *hierarchy.Table
}

// Open opens or creates an index database at the given path.
func Open(dbPath string) (*Index, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening index database: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS classes (
		name       TEXT PRIMARY KEY,
		super      TEXT NOT NULL,
		interfaces TEXT NOT NULL,
		access     INTEGER NOT NULL,
		major      INTEGER NOT NULL,
		source     TEXT NOT NULL,
		sha256     TEXT NOT NULL
	)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating classes table: %w", err)
	}
	return &Index{db: db}, nil
}

// OpenMemory opens a throwaway in-memory index.
func OpenMemory() (*Index, error) {
	return Open(":memory:")
}

// Close closes the underlying database.
func (ix *Index) Close() error {
	return ix.db.Close()
}

// Add indexes one class file's bytes. Only the identity header is decoded.
func (ix *Index) Add(data []byte, source string) error {
	info, err := classfile.ParseInfo(data)
	if err != nil {
		return fmt.Errorf("indexing %s: %w", source, err)
	}
	sum := sha256.Sum256(data)
	ix.mu.Lock()
	defer ix.mu.Unlock()
	_, err = ix.db.Exec(
		`INSERT OR REPLACE INTO classes (name, super, interfaces, access, major, source, sha256)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		info.Name, info.SuperName, strings.Join(info.Interfaces, ","),
		uint16(info.Access), info.Version.Major, source, hex.EncodeToString(sum[:]),
	)
	if err != nil {
		return fmt.Errorf("indexing %s: %w", info.Name, err)
	}
	ix.table = nil
	return nil
}

// AddDir walks a directory tree and indexes every .class file. Returns the
// number of classes added.
func (ix *Index) AddDir(dir string) (int, error) {
	added := 0
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(path, ".class") {
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		if err := ix.Add(data, path); err != nil {
			return err
		}
		added++
		return nil
	})
	if err != nil {
		return added, fmt.Errorf("scanning %s: %w", dir, err)
	}
	return added, nil
}

// AddJar indexes every .class entry of a JAR (or any zip). Returns the
// number of classes added.
func (ix *Index) AddJar(path string) (int, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return 0, fmt.Errorf("opening %s: %w", path, err)
	}
	defer zr.Close()
	added := 0
	for _, f := range zr.File {
		if !strings.HasSuffix(f.Name, ".class") || strings.HasSuffix(f.Name, "module-info.class") {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return added, fmt.Errorf("reading %s!%s: %w", path, f.Name, err)
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return added, fmt.Errorf("reading %s!%s: %w", path, f.Name, err)
		}
		if err := ix.Add(data, path+"!"+f.Name); err != nil {
			return added, err
		}
		added++
	}
	return added, nil
}

// Lookup returns the record for a class name.
func (ix *Index) Lookup(name string) (*Record, error) {
	row := ix.db.QueryRow(
		`SELECT name, super, interfaces, access, major, source, sha256
		 FROM classes WHERE name = ?`, name)
	var r Record
	var access, major int
	var ifaces string
	err := row.Scan(&r.Name, &r.SuperName, &ifaces, &access, &major, &r.Source, &r.SHA256)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrClassNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("looking up %s: %w", name, err)
	}
	r.Access = classfile.AccessFlags(access)
	r.Major = uint16(major)
	if ifaces != "" {
		r.Interfaces = strings.Split(ifaces, ",")
	}
	return &r, nil
}

// Len reports the number of indexed classes.
func (ix *Index) Len() (int, error) {
	var n int
	if err := ix.db.QueryRow(`SELECT COUNT(*) FROM classes`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting classes: %w", err)
	}
	return n, nil
}

// Table materializes the index into a static hierarchy table. The table is
// cached until the next addition. The core java/lang relationships are
// always present so small classpaths still resolve platform supertypes.
func (ix *Index) Table() (*hierarchy.Table, error) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	if ix.table != nil {
		return ix.table, nil
	}
	t := hierarchy.Base()
	rows, err := ix.db.Query(`SELECT name, super, interfaces, access FROM classes`)
	if err != nil {
		return nil, fmt.Errorf("loading hierarchy: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var name, super, ifaces string
		var access int
		if err := rows.Scan(&name, &super, &ifaces, &access); err != nil {
			return nil, fmt.Errorf("loading hierarchy: %w", err)
		}
		var interfaces []string
		if ifaces != "" {
			interfaces = strings.Split(ifaces, ",")
		}
		if classfile.AccessFlags(access).Has(classfile.AccInterface) {
			t.AddInterface(name, interfaces...)
		} else {
			t.Add(name, super, interfaces...)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("loading hierarchy: %w", err)
	}
	ix.table = t
	return t, nil
}

// IsAssignable answers the hierarchy query from the cached table.
func (ix *Index) IsAssignable(sub, super string) (bool, error) {
	t, err := ix.Table()
	if err != nil {
		return false, err
	}
	return t.IsAssignable(sub, super)
}

// CommonSupertype answers the hierarchy query from the cached table.
func (ix *Index) CommonSupertype(a, b string) (string, error) {
	t, err := ix.Table()
	if err != nil {
		return "", err
	}
	return t.CommonSupertype(a, b)
}
