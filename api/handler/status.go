package handler

import (
	"net/http"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gin-gonic/gin"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"
	"golang.org/x/sync/errgroup"
)

// Status handles GET /admin/status with basic host metrics for the admin
// dashboard.
func (h *Handler) Status(c *gin.Context) {
	var (
		cpuPercent float64
		memUsed    uint64
		memTotal   uint64
		uptime     uint64
	)

	g, ctx := errgroup.WithContext(c.Request.Context())
	g.Go(func() error {
		percents, err := cpu.PercentWithContext(ctx, 250*time.Millisecond, false)
		if err != nil {
			return err
		}
		if len(percents) > 0 {
			cpuPercent = percents[0]
		}
		return nil
	})
	g.Go(func() error {
		vm, err := mem.VirtualMemoryWithContext(ctx)
		if err != nil {
			return err
		}
		memUsed = vm.Used
		memTotal = vm.Total
		return nil
	})
	g.Go(func() error {
		up, err := host.UptimeWithContext(ctx)
		if err != nil {
			return err
		}
		uptime = up
		return nil
	})
	if err := g.Wait(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"cpuPercent": cpuPercent,
		"memUsed":    humanize.Bytes(memUsed),
		"memTotal":   humanize.Bytes(memTotal),
		"uptime":     (time.Duration(uptime) * time.Second).String(),
	})
}
