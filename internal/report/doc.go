// Package report renders run results for humans and machines. It offers
// a terminal text writer, JSON for tool integration, CSV for spreadsheet
// workflows, and Markdown for sharing, all behind one Writer interface so
// the CLI can fan a result out to several destinations at once.
package report
