package ui

import (
	"fmt"
	"sort"
	"strings"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
)

const (
	noTagsFoundMsg       = "No tags yet. Open an image and use Tag... to add some."
	noTagsMatchSearchMsg = "No tags match your search."
	errorLoadingTagsMsg  = "Error loading tags."
)

// tagListItem holds a tag name and its usage count for display.
type tagListItem struct {
	Name  string
	Count int
}

// tagListController drives the Tags tab: a searchable list of every tag.
// Selecting a tag filters the gallery by it.
type tagListController struct {
	app                  *App
	searchEntry          *widget.Entry
	tagList              *widget.List
	removeButton         *widget.Button
	messageLabel         *widget.Label
	allTags              []tagListItem
	filteredDisplayData  []tagListItem
	selectedTagForAction string
}

func (a *App) buildTagsTab() *container.TabItem {
	c := &tagListController{app: a}
	a.tagsView = c

	c.searchEntry = widget.NewEntry()
	c.searchEntry.SetPlaceHolder("Search Tags...")
	c.searchEntry.OnChanged = c.filterAndRefreshList

	refreshButton := widget.NewButtonWithIcon("Refresh", theme.ViewRefreshIcon(), c.loadAndFilterTagData)
	clearButton := widget.NewButtonWithIcon("Show All", theme.ContentClearIcon(), func() { a.applyFilter("") })
	c.removeButton = widget.NewButtonWithIcon("Remove Tag Globally", theme.DeleteIcon(), c.onRemoveTapped)
	c.removeButton.Disable()

	c.tagList = widget.NewList(
		func() int { return len(c.filteredDisplayData) },
		func() fyne.CanvasObject { return widget.NewLabel("tag template") },
		func(id widget.ListItemID, obj fyne.CanvasObject) {
			if id < 0 || id >= len(c.filteredDisplayData) {
				return
			}
			item := c.filteredDisplayData[id]
			obj.(*widget.Label).SetText(fmt.Sprintf("%s (%d)", item.Name, item.Count))
		},
	)
	c.tagList.OnSelected = c.onTagSelected
	c.tagList.OnUnselected = c.onTagUnselected

	c.messageLabel = widget.NewLabel(noTagsFoundMsg)
	c.messageLabel.Alignment = fyne.TextAlignCenter
	c.messageLabel.Wrapping = fyne.TextWrapWord

	c.loadAndFilterTagData()

	top := container.NewBorder(nil, nil, nil, container.NewHBox(refreshButton, clearButton), c.searchEntry)
	return container.NewTabItemWithIcon("Tags", theme.ListIcon(), container.NewBorder(
		top,
		c.removeButton,
		nil, nil,
		container.NewStack(c.tagList, c.messageLabel),
	))
}

// filterAndRefreshList updates the list display based on the current search term.
func (c *tagListController) filterAndRefreshList(searchTerm string) {
	searchTerm = strings.ToLower(strings.TrimSpace(searchTerm))
	c.filteredDisplayData = []tagListItem{}
	if searchTerm == "" {
		c.filteredDisplayData = c.allTags
	} else {
		for _, tag := range c.allTags {
			if strings.Contains(strings.ToLower(tag.Name), searchTerm) {
				c.filteredDisplayData = append(c.filteredDisplayData, tag)
			}
		}
	}

	if len(c.filteredDisplayData) == 0 {
		msg := noTagsFoundMsg
		if searchTerm != "" {
			msg = noTagsMatchSearchMsg
		}
		c.messageLabel.SetText(msg)
		c.messageLabel.Show()
		c.tagList.Hide()
		return
	}
	c.messageLabel.Hide()
	c.tagList.Show()
	c.tagList.Refresh()
}

// loadAndFilterTagData reloads all tag data from the service, sorts it, and refreshes the view.
func (c *tagListController) loadAndFilterTagData() {
	fetched, err := c.app.Service.ListAllTags()
	if err != nil {
		c.app.log.WithError(err).Warn("Error loading tags")
		c.allTags = []tagListItem{}
		c.messageLabel.SetText(errorLoadingTagsMsg)
	} else {
		c.allTags = make([]tagListItem, len(fetched))
		for i, info := range fetched {
			c.allTags[i] = tagListItem{Name: info.Name, Count: info.Count}
		}
		// Sort by count (descending), then by name (ascending) for ties.
		sort.Slice(c.allTags, func(i, j int) bool {
			if c.allTags[i].Count != c.allTags[j].Count {
				return c.allTags[i].Count > c.allTags[j].Count
			}
			return c.allTags[i].Name < c.allTags[j].Name
		})
	}
	c.filterAndRefreshList(c.searchEntry.Text)
	c.tagList.UnselectAll()
}

// onRemoveTapped handles the logic for the "Remove Tag Globally" button.
func (c *tagListController) onRemoveTapped() {
	tag := c.selectedTagForAction
	if tag == "" {
		return
	}
	msg := fmt.Sprintf("Remove the tag '%s' from ALL images?\nThis action cannot be undone.", tag)
	dialog.ShowConfirm("Confirm Global Tag Removal", msg, func(confirm bool) {
		if !confirm {
			return
		}
		removed, failed, err := c.app.Service.RemoveTagGlobally(tag)
		c.app.log.WithField("tag", tag).Infof("Global removal: %d removed, %d failed", removed, failed)
		if err != nil {
			dialog.ShowError(fmt.Errorf("failed to globally remove tag '%s': %w", tag, err), c.app.UI.MainWin)
			return
		}
		if strings.EqualFold(c.app.ctrl.Filter(), tag) {
			c.app.applyFilter("")
		}
		c.app.Service.RefreshAllTags()
		c.loadAndFilterTagData()
	}, c.app.UI.MainWin)
}

// onTagSelected filters the gallery by the chosen tag.
func (c *tagListController) onTagSelected(id widget.ListItemID) {
	if id < 0 || id >= len(c.filteredDisplayData) {
		c.selectedTagForAction = ""
		c.removeButton.Disable()
		return
	}
	c.selectedTagForAction = c.filteredDisplayData[id].Name
	c.removeButton.Enable()
	c.app.applyFilter(c.selectedTagForAction)
}

func (c *tagListController) onTagUnselected(_ widget.ListItemID) {
	c.selectedTagForAction = ""
	c.removeButton.Disable()
}
