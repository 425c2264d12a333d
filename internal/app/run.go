// Package app is the desktop form for segment prediction.
package app

import (
	"context"
	"fmt"
	"os"

	"fyne.io/fyne/v2"
	fyneapp "fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"yashubustudio/segmenter/segmenter"
)

const (
	fyneAppID   = "yashubustudio.segmenter"
	windowTitle = "Customer Segmentation Predictor"
	logLimit    = 300
)

// Run loads the configuration and artifacts, then shows the form until the window closes.
// Startup failures are shown in the window and returned once it closes.
func Run(cfgPath string) error {
	a := fyneapp.NewWithID(fyneAppID)
	w := a.NewWindow(windowTitle)
	w.Resize(fyne.NewSize(1180, 780))

	cfg, err := segmenter.LoadConfig(cfgPath)
	if err != nil {
		return showFatalError(w, fmt.Errorf("load config: %w", err))
	}

	logs := newLogCapture(logLimit)
	defer logs.stop()
	logger, err := newLogger(cfg.Log, logs)
	if err != nil {
		return showFatalError(w, err)
	}
	defer func() { _ = logger.Sync() }()

	svc, err := segmenter.NewService(context.Background(), cfg, logger)
	if err != nil {
		logger.Error("startup failed", zap.Error(err))
		return showFatalError(w, fmt.Errorf("load model artifacts: %w", err))
	}
	defer svc.Close()

	buildUI(w, svc, logs, logger)
	w.ShowAndRun()
	return nil
}

// newLogger writes the configured format to stderr and a console copy to the log panel.
func newLogger(cfg segmenter.LogConfig, panel *logCapture) (*zap.Logger, error) {
	stderr, err := segmenter.NewLogger(cfg, os.Stderr)
	if err != nil {
		return nil, err
	}
	panelCfg := cfg
	panelCfg.Development = true
	captured, err := segmenter.NewLogger(panelCfg, panel)
	if err != nil {
		return nil, err
	}
	return zap.New(zapcore.NewTee(stderr.Core(), captured.Core())), nil
}

func showFatalError(win fyne.Window, err error) error {
	content := widget.NewLabel(err.Error())
	content.Wrapping = fyne.TextWrapWord
	win.SetContent(content)
	dialog.ShowError(err, win)
	win.ShowAndRun()
	return err
}
