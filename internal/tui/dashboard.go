// Package tui implements an optional operator console behind --tui: a
// termui dashboard subscribing to the process bus (VP control signals and
// GDB connection status) to show VP running-state, cumulative transaction
// count, and GDB connection status live.
//
// The teacher's go.mod carries gizak/termui/v3 and nsf/termbox-go without
// exercising them in any file we read; this package gives them a small,
// real home rather than dropping them, built in the standard termui
// grid-and-widgets idiom (ui.Init/ui.Render/ui.PollEvents).
package tui

import (
	"context"
	"fmt"
	"time"

	ui "github.com/gizak/termui/v3"
	"github.com/gizak/termui/v3/widgets"

	"github.com/protolens/vpbridge/internal/bus"
	"github.com/protolens/vpbridge/internal/gdbproxy"
	"github.com/protolens/vpbridge/internal/vp"
)

const pollInterval = 250 * time.Millisecond

// Dashboard renders VP/GDB state to the terminal.
type Dashboard struct {
	manager *vp.Manager
	proxy   *gdbproxy.Proxy
	ctrlBus *bus.Bus[vp.CtrlMsg]
}

// New builds a Dashboard over the process-wide VP manager, GDB proxy, and
// control bus.
func New(manager *vp.Manager, proxy *gdbproxy.Proxy, ctrlBus *bus.Bus[vp.CtrlMsg]) *Dashboard {
	return &Dashboard{manager: manager, proxy: proxy, ctrlBus: ctrlBus}
}

// Run initializes termui and blocks, redrawing on every VP/GDB transition
// and on a slow poll tick, until ctx is canceled or the operator quits.
func (d *Dashboard) Run(ctx context.Context) error {
	if err := ui.Init(); err != nil {
		return fmt.Errorf("tui: init: %w", err)
	}
	defer ui.Close()

	vpPanel := widgets.NewParagraph()
	vpPanel.Title = "VP"
	vpPanel.SetRect(0, 0, 50, 3)

	gdbPanel := widgets.NewParagraph()
	gdbPanel.Title = "GDB"
	gdbPanel.SetRect(0, 3, 50, 6)

	countPanel := widgets.NewParagraph()
	countPanel.Title = "Transactions"
	countPanel.SetRect(0, 6, 50, 9)

	render := func() {
		status := "stopped"
		var count uint64
		d.manager.WithVP(func(state *vp.State) {
			if state == nil || !state.IsRunning() {
				return
			}
			status = fmt.Sprintf("running (%s)", state.Mode)
			count = state.CumulativeCount()
		})
		vpPanel.Text = status
		gdbPanel.Text = d.proxy.Status().String()
		countPanel.Text = fmt.Sprintf("%d", count)
		ui.Render(vpPanel, gdbPanel, countPanel)
	}
	render()

	ctrlCh, unsubCtrl := d.ctrlBus.Subscribe()
	defer unsubCtrl()
	statusCh, unsubStatus := d.proxy.SubscribeStatus()
	defer unsubStatus()

	uiEvents := ui.PollEvents()
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case e := <-uiEvents:
			if e.ID == "q" || e.ID == "<C-c>" {
				return nil
			}
		case <-ctrlCh:
			render()
		case <-statusCh:
			render()
		case <-ticker.C:
			render()
		}
	}
}
