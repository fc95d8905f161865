// Package tui содержит компоненты для текстового пользовательского интерфейса
package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/hazadus/go-melody/internal/tui/app"
	"github.com/hazadus/go-melody/internal/tui/upload"
)

// App представляет основное TUI приложение
type App struct {
	ctrl     app.Controller
	lib      app.Library
	importer upload.Importer
}

// NewApp создает новый экземпляр TUI приложения. importer может быть nil,
// тогда экран добавления файлов недоступен.
func NewApp(ctrl app.Controller, lib app.Library, importer upload.Importer) *App {
	return &App{
		ctrl:     ctrl,
		lib:      lib,
		importer: importer,
	}
}

// Model возвращает корневую модель Bubble Tea
func (a *App) Model() *app.MainModel {
	return app.NewMainModel(a.ctrl, a.lib, a.importer)
}

// Run запускает TUI приложение и блокируется до выхода
func (a *App) Run() error {
	p := tea.NewProgram(a.Model(), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
