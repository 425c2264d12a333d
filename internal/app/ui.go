package app

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/data/binding"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
	"go.uber.org/zap"

	"yashubustudio/segmenter/segmenter"
)

type uiState struct {
	svc    *segmenter.Service
	logger *zap.Logger
	logs   *logCapture

	w          fyne.Window
	entries    []*widget.Entry
	predictBtn *widget.Button
	statusBind binding.String

	result          *fyne.Container
	bannerBg        *canvas.Rectangle
	bannerText      *canvas.Text
	description     *widget.Label
	characteristics *widget.RichText
	strategy        *widget.Label
	compareTbl      *widget.Table
	compareData     [][]string
	highlight       int
	headline        *widget.Label

	batchRows    []segmenter.BatchResult
	batchData    [][]string
	batchTbl     *widget.Table
	clampCheck   *widget.Check
	progressBind binding.Float
	progress     *widget.ProgressBar
	loadBtn      *widget.Button
	exportBtn    *widget.Button

	logBind binding.String
}

func buildUI(w fyne.Window, svc *segmenter.Service, logs *logCapture, logger *zap.Logger) *uiState {
	u := &uiState{svc: svc, logger: logger, logs: logs, w: w, highlight: -1}
	u.statusBind = binding.NewString()
	_ = u.statusBind.Set("Ready")
	u.logBind = binding.NewString()
	u.progressBind = binding.NewFloat()

	tabs := container.NewAppTabs(
		container.NewTabItemWithIcon("Predict", theme.SearchIcon(), u.buildPredictTab()),
		container.NewTabItemWithIcon("Batch", theme.ListIcon(), u.buildBatchTab()),
	)

	logView := widget.NewEntryWithData(u.logBind)
	logView.MultiLine = true
	logView.Wrapping = fyne.TextWrapWord
	logView.Disable()
	logs.bind(func(text string) { _ = u.logBind.Set(text) })

	side := container.NewVSplit(
		container.NewBorder(
			widget.NewLabelWithStyle("Segment Legend", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
			nil, nil, nil,
			container.NewVScroll(u.buildLegend()),
		),
		container.NewBorder(
			widget.NewLabelWithStyle("Log", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
			nil, nil, nil,
			logView,
		),
	)
	side.Offset = 0.6

	split := container.NewHSplit(tabs, side)
	split.Offset = 0.7
	w.SetContent(split)
	return u
}

func (u *uiState) buildPredictTab() fyne.CanvasObject {
	groups := map[string]*widget.Form{
		segmenter.GroupDemographic: widget.NewForm(),
		segmenter.GroupBehavior:    widget.NewForm(),
	}
	for _, spec := range segmenter.FieldSpecs {
		entry := widget.NewEntry()
		entry.SetText(formatValue(spec.Default))
		entry.SetPlaceHolder(fmt.Sprintf("%s to %s", formatValue(spec.Min), formatValue(spec.Max)))
		entry.Validator = func(s string) error {
			_, err := parseFieldValue(spec, s)
			return err
		}
		entry.OnSubmitted = func(string) { u.onPredict() }
		u.entries = append(u.entries, entry)
		groups[spec.Group].Append(spec.Label, entry)
	}
	form := container.NewGridWithColumns(2,
		widget.NewCard(segmenter.GroupDemographic, "", groups[segmenter.GroupDemographic]),
		widget.NewCard(segmenter.GroupBehavior, "", groups[segmenter.GroupBehavior]),
	)

	u.predictBtn = widget.NewButtonWithIcon("Predict Segment", theme.ConfirmIcon(), func() { u.onPredict() })
	u.predictBtn.Importance = widget.HighImportance

	u.bannerBg = canvas.NewRectangle(theme.Color(theme.ColorNameDisabled))
	u.bannerBg.CornerRadius = 6
	u.bannerText = canvas.NewText("", theme.Color(theme.ColorNameForeground))
	u.bannerText.TextSize = 22
	u.bannerText.TextStyle = fyne.TextStyle{Bold: true}
	u.bannerText.Alignment = fyne.TextAlignCenter
	banner := container.NewStack(u.bannerBg, container.NewPadded(u.bannerText))

	u.description = widget.NewLabelWithStyle("", fyne.TextAlignLeading, fyne.TextStyle{Bold: true})
	u.description.Wrapping = fyne.TextWrapWord
	u.characteristics = widget.NewRichTextFromMarkdown("")
	u.strategy = widget.NewLabel("")
	u.strategy.Wrapping = fyne.TextWrapWord
	u.headline = widget.NewLabelWithStyle("", fyne.TextAlignLeading, fyne.TextStyle{Bold: true})

	u.compareTbl = newGridTable(func() [][]string { return u.compareData }, func(row int) bool {
		return u.highlight >= 0 && row == u.highlight+1
	})
	compareBox := container.NewBorder(nil, u.headline, nil, nil, u.compareTbl)
	more := widget.NewAccordion(widget.NewAccordionItem("More Information About Segments",
		container.NewGridWrap(fyne.NewSize(760, 200), compareBox)))

	u.result = container.NewVBox(
		banner,
		u.description,
		widget.NewLabelWithStyle("Average Segment Characteristics", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		u.characteristics,
		widget.NewLabelWithStyle("Recommended Strategy", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		u.strategy,
		more,
	)
	u.result.Hide()

	return container.NewVScroll(container.NewVBox(
		form,
		container.NewHBox(u.predictBtn, widget.NewLabelWithData(u.statusBind)),
		widget.NewSeparator(),
		u.result,
	))
}

func (u *uiState) buildLegend() fyne.CanvasObject {
	acc := widget.NewAccordion()
	for _, entry := range u.svc.Legend() {
		body := widget.NewLabel(fmt.Sprintf("%s\n\nStrategy: %s", entry.Profile.Description, entry.Profile.Strategy))
		body.Wrapping = fyne.TextWrapWord
		acc.Append(widget.NewAccordionItem(legendTitle(entry), body))
	}
	return acc
}

func (u *uiState) buildBatchTab() fyne.CanvasObject {
	u.clampCheck = widget.NewCheck("Clamp out of range values", nil)
	u.loadBtn = widget.NewButtonWithIcon("Open CSV", theme.FolderOpenIcon(), func() { u.onLoadBatch() })
	u.exportBtn = widget.NewButtonWithIcon("Export CSV", theme.DocumentSaveIcon(), func() { u.onExportBatch() })
	u.exportBtn.Disable()
	u.progress = widget.NewProgressBarWithData(u.progressBind)
	u.progress.Hide()

	u.batchTbl = newGridTable(func() [][]string { return u.batchData }, nil)
	for col, width := range []float32{140, 80, 220, 320} {
		u.batchTbl.SetColumnWidth(col, width)
	}
	top := container.NewVBox(
		container.NewHBox(u.loadBtn, u.exportBtn, u.clampCheck),
		u.progress,
	)
	return container.NewBorder(top, nil, nil, nil, u.batchTbl)
}

// newGridTable renders data with its first row as a bold header.
func newGridTable(data func() [][]string, emphasize func(row int) bool) *widget.Table {
	return widget.NewTable(
		func() (int, int) {
			d := data()
			if len(d) == 0 {
				return 0, 0
			}
			return len(d), len(d[0])
		},
		func() fyne.CanvasObject {
			return widget.NewLabel("")
		},
		func(id widget.TableCellID, obj fyne.CanvasObject) {
			d := data()
			label := obj.(*widget.Label)
			if id.Row >= len(d) || id.Col >= len(d[id.Row]) {
				label.SetText("")
				return
			}
			label.Importance = widget.MediumImportance
			label.TextStyle = fyne.TextStyle{}
			if id.Row == 0 {
				label.TextStyle = fyne.TextStyle{Bold: true}
			} else if emphasize != nil && emphasize(id.Row) {
				label.TextStyle = fyne.TextStyle{Bold: true}
				label.Importance = widget.HighImportance
			}
			label.SetText(d[id.Row][id.Col])
		},
	)
}

func (u *uiState) entryTexts() []string {
	texts := make([]string, len(u.entries))
	for i, e := range u.entries {
		texts[i] = e.Text
	}
	return texts
}

func (u *uiState) onPredict() {
	fv, err := parseFeatureEntries(u.entryTexts())
	if err != nil {
		dialog.ShowError(err, u.w)
		return
	}
	u.predictBtn.Disable()
	_ = u.statusBind.Set("Predicting...")
	go func() {
		start := time.Now()
		rm, err := u.svc.HandlePredictionRequest(fv)
		elapsed := time.Since(start)
		if err == nil {
			u.logger.Info("prediction", zap.Int("cluster", int(rm.ClusterID)), zap.String("segment", rm.Profile.Name))
		}
		fyne.Do(func() {
			u.predictBtn.Enable()
			if err != nil {
				u.logger.Error("prediction failed", zap.Error(err))
				_ = u.statusBind.Set("Error")
				dialog.ShowError(err, u.w)
				return
			}
			u.showResult(rm)
			_ = u.statusBind.Set(fmt.Sprintf("Segment %d (%s)", rm.ClusterID, elapsed.Round(time.Microsecond)))
		})
	}()
}

func (u *uiState) showResult(rm segmenter.RenderModel) {
	bg, err := parseHexColor(rm.Profile.Color)
	if err != nil {
		u.logger.Warn("segment color", zap.Error(err))
		u.bannerBg.FillColor = theme.Color(theme.ColorNamePrimary)
		u.bannerText.Color = theme.Color(theme.ColorNameForeground)
	} else {
		u.bannerBg.FillColor = bg
		u.bannerText.Color = textColorFor(rm.Profile.Color)
	}
	u.bannerText.Text = rm.Profile.Name
	u.bannerBg.Refresh()
	u.bannerText.Refresh()

	u.description.SetText(rm.Profile.Description)
	u.characteristics.ParseMarkdown(characteristicsMarkdown(rm.Characteristics))
	u.strategy.SetText(rm.Profile.Strategy)

	u.compareData = comparisonCells(rm.Comparison)
	u.highlight = rm.Comparison.Highlight
	for col := range rm.Comparison.Headers {
		width := float32(110)
		if col == 0 {
			width = 70
		}
		u.compareTbl.SetColumnWidth(col, width)
	}
	u.compareTbl.Refresh()
	u.headline.SetText(rm.Headline())
	u.result.Show()
}

func (u *uiState) setBatchBusy(busy bool) {
	if busy {
		u.loadBtn.Disable()
		u.exportBtn.Disable()
		u.progress.Show()
		return
	}
	u.loadBtn.Enable()
	u.progress.Hide()
	if len(u.batchRows) > 0 {
		u.exportBtn.Enable()
	}
}

func (u *uiState) onLoadBatch() {
	fd := dialog.NewFileOpen(func(rc fyne.URIReadCloser, err error) {
		if err != nil || rc == nil {
			return
		}
		defer rc.Close()
		name := filepath.Base(rc.URI().Path())
		records, err := segmenter.ParseCustomers(rc)
		if err != nil {
			dialog.ShowError(fmt.Errorf("read %s: %w", name, err), u.w)
			return
		}
		if len(records) == 0 {
			dialog.ShowInformation("Batch", "The file has no customer rows", u.w)
			return
		}
		u.runBatch(name, records, u.clampCheck.Checked)
	}, u.w)
	fd.SetFilter(storage.NewExtensionFileFilter([]string{".csv"}))
	fd.Show()
}

func (u *uiState) runBatch(name string, records []segmenter.CustomerRecord, clamp bool) {
	u.progress.Min, u.progress.Max = 0, float64(len(records))
	_ = u.progressBind.Set(0)
	u.setBatchBusy(true)
	u.logger.Info("batch started", zap.String("file", name), zap.Int("rows", len(records)))

	go func() {
		results, err := u.svc.PredictBatch(context.Background(), records, clamp, func(done, _ int) {
			_ = u.progressBind.Set(float64(done))
		})
		fyne.Do(func() {
			if err != nil {
				u.setBatchBusy(false)
				dialog.ShowError(err, u.w)
				return
			}
			u.batchRows = results
			u.batchData = batchTableData(results)
			u.batchTbl.Refresh()
			u.setBatchBusy(false)
		})
	}()
}

func (u *uiState) onExportBatch() {
	if len(u.batchRows) == 0 {
		dialog.ShowInformation("Batch", "There are no results to export", u.w)
		return
	}
	rows := u.batchRows
	fd := dialog.NewFileSave(func(uc fyne.URIWriteCloser, err error) {
		if err != nil || uc == nil {
			return
		}
		defer uc.Close()
		n, err := segmenter.WriteBatchCSV(uc, rows)
		if err != nil {
			dialog.ShowError(err, u.w)
			return
		}
		u.logger.Info("batch exported", zap.String("path", uc.URI().Path()), zap.Int("rows", n))
	}, u.w)
	fd.SetFileName(fmt.Sprintf("segments_%s.csv", time.Now().Format("20060102150405")))
	fd.SetFilter(storage.NewExtensionFileFilter([]string{".csv"}))
	fd.Show()
}
