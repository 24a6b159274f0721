// Package journal creates the dated daily journal file from its template.
package journal

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/starford/taglog/internal/eventlog"
	"github.com/starford/taglog/internal/storage"
)

// DateLayout is the day format used in journal file names and headings.
const DateLayout = "02-01-2006"

// Placeholder is the inline tag written on the template's tag line.
const Placeholder = "replace-with-tags"

// Filename returns the journal file name for the day of t.
func Filename(t time.Time) string {
	return t.Format(DateLayout) + ".md"
}

// Render returns the daily template for the day of t. Line index 2 carries the
// inline tag line picked up by reconciliation.
func Render(t time.Time) string {
	return fmt.Sprintf(template, t.Format(DateLayout), Placeholder)
}

const template = `# %s

#%s <!-- markdownlint-disable-line MD018 -->

## 🌟 Daily Goals

- [ ] Task 1

## 📑 Work Log

## 🧠 Insights & Decisions

## 👨🏽‍💻 Troubleshooting 🕵️

## 🧰 Tools 📓 📝 <!-- markdownlint-disable MD024 -->

### 📓 Bash Script Heading Sample

#### Purpose

#### Key Features

##### 1. Automatic File Naming

##### 2. Pre-Filled Template

##### 3. Logging

##### 4. Integration with CLI

#### Workflow

##### 1. File Creation

##### 2. Logging the Event

##### 3. User Notification

#### Example Use Case

#### Notes

## 🗃️  Step-by-Step Guide 🛠️ ⚙️ 

## 🔗 Resources

## 🗓️ Next Day Preview
`

// Creator writes the daily file and records its creation in the event log.
type Creator struct {
	store  storage.Provider
	log    *eventlog.Log
	logger *slog.Logger
}

// NewCreator creates a Creator.
func NewCreator(store storage.Provider, log *eventlog.Log, logger *slog.Logger) *Creator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Creator{store: store, log: log, logger: logger}
}

// Create writes the journal file for the day of now and returns its name. An
// existing file is left untouched and reported as apperr.ErrAlreadyExists.
func (c *Creator) Create(now time.Time) (string, error) {
	name := Filename(now)
	if err := c.store.Create(name, []byte(Render(now))); err != nil {
		return name, err
	}
	c.logger.Info("journal: created", slog.String("file", name))

	if err := c.log.Info(eventlog.EventDailyLogInitialized, name, nil); err != nil {
		return name, fmt.Errorf("journal: record creation: %w", err)
	}
	return name, nil
}
