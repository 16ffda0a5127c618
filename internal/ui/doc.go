// Package ui implements the interactive upload flow using bubbletea's Elm architecture.
//
// A single screen carries the whole flow: the selection input, the selection label, the preview container
// and one of the loading, results or error regions. The [Model] owns an [upload.Controller] and mutates it only
// inside Update; everything slow runs as a [tea.Cmd]:
//   - one decode task per selected image, reporting a preview entry
//   - one submission task per submit, reporting pipeline progress through a channel and its outcome through a one-slot channel
//   - download and browser tasks for a finished reconstruction
//
// [Render] is a pure function of the controller snapshot, so the same state always draws the same screen.
//
// Keys: enter applies the typed selection, ctrl+s generates, ctrl+d downloads the model, ctrl+o opens it in the browser,
// pgup/pgdn scroll and esc quits. Contextual help is displayed via charmbracelet/bubbles/help.
package ui
