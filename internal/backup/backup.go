package backup

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/julianstephens/salah/internal/constants"
	apperrors "github.com/julianstephens/salah/internal/errors"
	"github.com/julianstephens/salah/internal/logger"
	"github.com/julianstephens/salah/internal/models"
)

// Source produces and accepts record exports.
type Source interface {
	Export() (string, []byte, error)
	Import(data []byte) (models.Record, error)
}

// ExportInfo contains information about an export file
type ExportInfo struct {
	Path      string
	Timestamp time.Time
	Size      int64
}

// Manager keeps date-stamped record exports in one directory and rotates
// them to the newest MaxExports.
type Manager struct {
	src       Source
	exportDir string
	now       func() time.Time
}

// NewManager creates an export manager writing under configDir/exports.
func NewManager(configDir string, src Source) *Manager {
	return &Manager{
		src:       src,
		exportDir: filepath.Join(configDir, constants.ExportDirName),
		now:       time.Now,
	}
}

// GetExportDir returns the export directory path
func (m *Manager) GetExportDir() string {
	return m.exportDir
}

// CreateExport writes the current record to a new export file.
func (m *Manager) CreateExport() (string, error) {
	return m.createExport(false)
}

// createExport skips rotation when called as part of a restore.
func (m *Manager) createExport(skipRotation bool) (string, error) {
	if err := os.MkdirAll(m.exportDir, 0700); err != nil {
		return "", fmt.Errorf("failed to create export directory: %w", err)
	}

	name, data, err := m.src.Export()
	if err != nil {
		return "", fmt.Errorf("failed to export record: %w", err)
	}

	path, err := m.uniquePath(name)
	if err != nil {
		return "", err
	}
	if err := writeFileAtomic(path, data); err != nil {
		return "", fmt.Errorf("failed to write export: %w", err)
	}

	if !skipRotation {
		if err := m.rotateExports(); err != nil {
			logger.Warn("Failed to rotate old exports", "error", err)
		}
	}
	return path, nil
}

// uniquePath returns a free path for name. A second export on the same day
// gets a time suffix, then a counter.
func (m *Manager) uniquePath(name string) (string, error) {
	path := filepath.Join(m.exportDir, name)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return path, nil
	}

	stem := strings.TrimSuffix(name, constants.ExportFileSuffix) + "-" + m.now().Format("150405")
	path = filepath.Join(m.exportDir, stem+constants.ExportFileSuffix)
	for counter := 1; ; counter++ {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return path, nil
		}
		if counter > 100 {
			return "", fmt.Errorf("failed to generate unique export filename")
		}
		path = filepath.Join(m.exportDir, fmt.Sprintf("%s-%d%s", stem, counter, constants.ExportFileSuffix))
	}
}

// ListExports returns all export files, newest first.
func (m *Manager) ListExports() ([]ExportInfo, error) {
	if _, err := os.Stat(m.exportDir); os.IsNotExist(err) {
		return []ExportInfo{}, nil
	}

	entries, err := os.ReadDir(m.exportDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read export directory: %w", err)
	}

	var exports []ExportInfo
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		timestamp, ok := parseExportName(name)
		if !ok {
			continue
		}

		path := filepath.Join(m.exportDir, name)
		info, err := os.Stat(path)
		if err != nil {
			continue
		}
		exports = append(exports, ExportInfo{
			Path:      path,
			Timestamp: timestamp,
			Size:      info.Size(),
		})
	}

	sort.SliceStable(exports, func(i, j int) bool {
		if exports[i].Timestamp.Equal(exports[j].Timestamp) {
			return exports[i].Path > exports[j].Path
		}
		return exports[i].Timestamp.After(exports[j].Timestamp)
	})
	return exports, nil
}

// parseExportName reads the timestamp out of salah-YYYY-MM-DD[-HHMMSS[-N]].json.
func parseExportName(name string) (time.Time, bool) {
	if !strings.HasPrefix(name, constants.ExportFilePrefix) || !strings.HasSuffix(name, constants.ExportFileSuffix) {
		return time.Time{}, false
	}
	stem := strings.TrimSuffix(strings.TrimPrefix(name, constants.ExportFilePrefix), constants.ExportFileSuffix)
	if len(stem) < len(constants.DateFormat) {
		return time.Time{}, false
	}

	day, err := time.Parse(constants.DateFormat, stem[:len(constants.DateFormat)])
	if err != nil {
		return time.Time{}, false
	}
	rest := strings.TrimPrefix(stem[len(constants.DateFormat):], "-")
	if rest == "" {
		return day, true
	}
	clock := strings.SplitN(rest, "-", 2)[0]
	t, err := time.Parse("150405", clock)
	if err != nil {
		return time.Time{}, false
	}
	return day.Add(time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute + time.Duration(t.Second())*time.Second), true
}

// rotateExports removes exports beyond the retention limit
func (m *Manager) rotateExports() error {
	exports, err := m.ListExports()
	if err != nil {
		return err
	}
	for i := constants.MaxExports; i < len(exports); i++ {
		if err := os.Remove(exports[i].Path); err != nil {
			return fmt.Errorf("failed to remove old export %s: %w", exports[i].Path, err)
		}
	}
	return nil
}

// RestoreExport imports an export file through the normal import path after
// saving the current record as a fresh export.
func (m *Manager) RestoreExport(path string) (models.Record, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return models.Record{}, "", fmt.Errorf("failed to read export file: %w", err)
	}
	if _, err := models.ParsePatch(data); err != nil {
		return models.Record{}, "", fmt.Errorf("%w: export file is corrupted or invalid: %v", apperrors.ErrImportValidation, err)
	}

	current, err := m.createExport(true)
	if err != nil {
		return models.Record{}, "", fmt.Errorf("failed to export current record before restore: %w", err)
	}

	rec, err := m.src.Import(data)
	if err != nil {
		return models.Record{}, current, err
	}
	return rec, current, nil
}

// SnapshotDatabase copies a SQLite store file into the export directory with
// VACUUM INTO and returns the snapshot path.
func (m *Manager) SnapshotDatabase(dbPath string) (string, error) {
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		return "", fmt.Errorf("database does not exist: %s", dbPath)
	}
	if err := os.MkdirAll(m.exportDir, 0700); err != nil {
		return "", fmt.Errorf("failed to create export directory: %w", err)
	}

	dest := filepath.Join(m.exportDir, fmt.Sprintf("%s%s.db", constants.ExportFilePrefix, m.now().Format("20060102-150405")))

	srcDB, err := sql.Open("sqlite", dbPath+"?mode=ro")
	if err != nil {
		return "", fmt.Errorf("failed to open source database: %w", err)
	}
	defer srcDB.Close()

	if err := verifyDatabase(srcDB); err != nil {
		return "", fmt.Errorf("source database appears to be corrupted: %w", err)
	}
	if _, err := srcDB.Exec("VACUUM INTO ?", dest); err != nil {
		srcDB.Close()
		if err := copyFile(dbPath, dest); err != nil {
			return "", fmt.Errorf("failed to snapshot database: %w", err)
		}
	}
	return dest, nil
}

// VerifyDatabase checks that path is a readable SQLite database.
func VerifyDatabase(path string) error {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return err
	}
	defer db.Close()
	return verifyDatabase(db)
}

func verifyDatabase(db *sql.DB) error {
	var count int
	return db.QueryRow("SELECT COUNT(*) FROM sqlite_master").Scan(&count)
}

func writeFileAtomic(path string, data []byte) error {
	tempPath := path + ".tmp"
	if err := os.WriteFile(tempPath, data, 0600); err != nil {
		return err
	}
	if err := os.Rename(tempPath, path); err != nil {
		if removeErr := os.Remove(tempPath); removeErr != nil {
			logger.Warn("Failed to remove temporary file", "path", tempPath, "error", removeErr)
		}
		return err
	}
	return nil
}

// copyFile copies a file from src to dst
func copyFile(src, dst string) error {
	sourceFile, err := os.Open(src)
	if err != nil {
		return err
	}
	defer sourceFile.Close()

	destFile, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer destFile.Close()

	if _, err := destFile.ReadFrom(sourceFile); err != nil {
		return err
	}
	return destFile.Sync()
}
