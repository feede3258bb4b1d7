package ui

import (
	"runtime/debug"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"
)

// SafeModel keeps a rendering bug from taking down the terminal while a
// transaction may still be confirming in the background.
type SafeModel struct {
	model  tea.Model
	logger *zap.Logger
}

func NewSafeModel(model tea.Model, logger *zap.Logger) *SafeModel {
	return &SafeModel{model: model, logger: logger}
}

func (sm *SafeModel) Init() (cmd tea.Cmd) {
	defer sm.recoverFromPanic("Init", &cmd)
	return sm.model.Init()
}

func (sm *SafeModel) Update(msg tea.Msg) (model tea.Model, cmd tea.Cmd) {
	model = sm
	defer sm.recoverFromPanic("Update", &cmd)
	sm.model, cmd = sm.model.Update(msg)
	return sm, cmd
}

func (sm *SafeModel) View() (view string) {
	defer func() {
		if r := recover(); r != nil {
			sm.logger.Error("View panic recovered",
				zap.Any("panic", r),
				zap.String("stack", string(debug.Stack())))
			view = "UI Error: View crashed. Press q to exit."
		}
	}()
	return sm.model.View()
}

// Паника в Update/Init не должна ронять программу: команда отбрасывается.
func (sm *SafeModel) recoverFromPanic(method string, cmd *tea.Cmd) {
	if r := recover(); r != nil {
		sm.logger.Error("UI method panic recovered",
			zap.String("method", method),
			zap.Any("panic", r),
			zap.String("stack", string(debug.Stack())))
		*cmd = nil
	}
}
