package ui

import (
	"fmt"
	"sort"
	"strings"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"

	"fygallery/internal/catalog"
)

const clearFilterOption = "(Show All / Clear Filter)"

// showFilterDialog displays a dialog to select a tag for filtering.
func (a *App) showFilterDialog() {
	allTagsWithCounts, err := a.Service.ListAllTags()
	if err != nil {
		dialog.ShowError(fmt.Errorf("failed to get tags for filtering: %w", err), a.UI.MainWin)
		return
	}
	if len(allTagsWithCounts) == 0 {
		dialog.ShowInformation("Filter by Tag", "No tags found in the database to filter by.", a.UI.MainWin)
		return
	}

	sortMode := "By Count"
	filterSelector := widget.NewSelect([]string{}, nil)

	updateTagList := func() {
		sort.Slice(allTagsWithCounts, func(i, j int) bool {
			tagI, tagJ := allTagsWithCounts[i], allTagsWithCounts[j]
			if sortMode == "By Name" || tagI.Count == tagJ.Count {
				return strings.ToLower(tagI.Name) < strings.ToLower(tagJ.Name)
			}
			return tagI.Count > tagJ.Count
		})

		options := []string{clearFilterOption}
		selected := clearFilterOption
		for _, tagInfo := range allTagsWithCounts {
			option := fmt.Sprintf("%s (%d)", tagInfo.Name, tagInfo.Count)
			options = append(options, option)
			if strings.EqualFold(tagInfo.Name, a.ctrl.Filter()) {
				selected = option
			}
		}
		filterSelector.Options = options
		filterSelector.SetSelected(selected)
		filterSelector.Refresh()
	}

	sortRadio := widget.NewRadioGroup([]string{"By Count", "By Name"}, func(s string) {
		sortMode = s
		updateTagList()
	})
	sortRadio.SetSelected(sortMode)
	updateTagList()

	dialog.ShowForm("Filter by Tag", "Apply", "Cancel", []*widget.FormItem{
		widget.NewFormItem("Sort", sortRadio),
		widget.NewFormItem("Select Tag", filterSelector),
	}, func(confirm bool) {
		if !confirm {
			return
		}
		if filterSelector.Selected == clearFilterOption {
			a.applyFilter("")
			return
		}
		// Extract tag name from "tag (count)"
		name := filterSelector.Selected
		if i := strings.LastIndex(name, " ("); i >= 0 {
			name = name[:i]
		}
		a.applyFilter(name)
	}, a.UI.MainWin)
}

// parseTags splits comma separated input, trimming blanks and duplicates.
func parseTags(input string) []string {
	seen := make(map[string]bool)
	var tags []string
	for _, part := range strings.Split(input, ",") {
		tag := strings.TrimSpace(part)
		if tag == "" || seen[tag] {
			continue
		}
		seen[tag] = true
		tags = append(tags, tag)
	}
	return tags
}

// showTagDialog edits the tags of record: new tags are typed in, existing
// ones can be unchecked. Autoplay is held while the dialog is open.
func (a *App) showTagDialog(record catalog.ImageRecord) {
	if record.Src == "" {
		dialog.ShowInformation("Tag Image", "No image is showing.", a.UI.MainWin)
		return
	}
	current, err := a.Service.ListTagsForImage(record.Src)
	if err != nil {
		dialog.ShowError(fmt.Errorf("failed to read tags: %w", err), a.UI.MainWin)
		return
	}

	a.show.Pause(true)
	defer a.syncAutoplayIcon(false)

	keep := widget.NewCheckGroup(current, nil)
	keep.SetSelected(current)
	entry := widget.NewEntry()
	entry.SetPlaceHolder("new tags, comma separated")

	items := []*widget.FormItem{widget.NewFormItem("Add", entry)}
	if len(current) > 0 {
		items = append(items, widget.NewFormItem("Keep", container.NewVScroll(keep)))
	}

	form := dialog.NewForm(fmt.Sprintf("Tags for %s", record.Title), "Save", "Cancel", items, func(confirm bool) {
		defer func() {
			a.show.ResumeAfterOperation()
			a.syncAutoplayIcon(!a.show.IsPaused())
		}()
		if !confirm {
			return
		}
		a.saveTags(record, current, keep.Selected, parseTags(entry.Text))
	}, a.UI.MainWin)
	form.Resize(fyne.NewSize(420, 320))
	form.Show()
	a.UI.MainWin.Canvas().Focus(entry)
}

func (a *App) saveTags(record catalog.ImageRecord, before, kept, added []string) {
	keptSet := make(map[string]bool, len(kept))
	for _, t := range kept {
		keptSet[t] = true
	}
	var removed []string
	for _, t := range before {
		if !keptSet[t] {
			removed = append(removed, t)
		}
	}

	if len(removed) > 0 {
		if err := a.Service.RemoveTagsFromImage(record.Src, removed); err != nil {
			dialog.ShowError(err, a.UI.MainWin)
			return
		}
	}
	if len(added) > 0 {
		if err := a.Service.AddTagsToImage(record.Src, added); err != nil {
			dialog.ShowError(err, a.UI.MainWin)
			return
		}
	}
	if len(removed) == 0 && len(added) == 0 {
		return
	}
	a.log.WithField("src", record.Src).Infof("Tags updated: +%d -%d", len(added), len(removed))

	if err := a.Service.RefreshTags(record.Src); err != nil {
		a.log.WithError(err).Warn("Could not refresh displayed tags")
	}
	if tags, err := a.Service.ListTagsForImage(record.Src); err == nil {
		a.box.setTags(record.Src, tags)
	}
	if a.tagsView != nil {
		a.tagsView.loadAndFilterTagData()
	}
}
