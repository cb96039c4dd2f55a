// Package dataset loads the raw study exports: the controlled-experiment
// JSON entity files and the survey response spreadsheet.
package dataset

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	jsoniter "github.com/json-iterator/go"
	"github.com/sirupsen/logrus"

	"github.com/ecochat-research/analysis/internal/logger"
	"github.com/ecochat-research/analysis/internal/models"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Entity file names of the experiment export. The set is fixed by the
// exporting application.
const (
	UsersFile         = "Users.json"
	ModesFile         = "Modes.json"
	PromptsFile       = "Prompts.json"
	LogsFile          = "Logs.json"
	ConversationsFile = "Conversations.json"
	EnergyUnitsFile   = "EnergyUnits.json"
)

// Experiment bundles the six entity exports of one experiment run.
type Experiment struct {
	Users         []models.User
	Modes         []models.ModeDef
	Prompts       []models.Prompt
	Logs          []models.LogEntry
	Conversations []models.Conversation
	EnergyUnits   []models.EnergyUnit
}

// Loader reads experiment entity files from a directory.
type Loader struct {
	dir string
}

// NewLoader returns a loader rooted at dir.
func NewLoader(dir string) *Loader {
	return &Loader{dir: dir}
}

// Load reads all entity files. A missing file is logged and yields an
// empty slice for that entity; unreadable or undecodable files are
// errors.
func (l *Loader) Load() (*Experiment, error) {
	var ex Experiment
	if err := l.loadInto(UsersFile, &ex.Users); err != nil {
		return nil, err
	}
	if err := l.loadInto(ModesFile, &ex.Modes); err != nil {
		return nil, err
	}
	if err := l.loadInto(PromptsFile, &ex.Prompts); err != nil {
		return nil, err
	}
	if err := l.loadInto(LogsFile, &ex.Logs); err != nil {
		return nil, err
	}
	if err := l.loadInto(ConversationsFile, &ex.Conversations); err != nil {
		return nil, err
	}
	if err := l.loadInto(EnergyUnitsFile, &ex.EnergyUnits); err != nil {
		return nil, err
	}
	logger.Log.WithFields(logrus.Fields{
		"users":         len(ex.Users),
		"prompts":       len(ex.Prompts),
		"conversations": len(ex.Conversations),
	}).Info("Loaded experiment data")
	return &ex, nil
}

func (l *Loader) loadInto(name string, out interface{}) error {
	path := filepath.Join(l.dir, name)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			logger.Log.WithField("file", name).Warn("Data file not found, substituting empty dataset")
			return nil
		}
		return fmt.Errorf("failed to read %s: %w", name, err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode %s: %w", name, err)
	}
	return nil
}
