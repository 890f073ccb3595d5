package app

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/surerank/core/internal/modules/media"
	"github.com/surerank/core/internal/modules/settings"
	"github.com/surerank/core/internal/pkg/cron"
	"go.uber.org/zap"
)

const backupsToKeep = 10

func (a *App) registerJobs() {
	a.sched.Register(cron.Job{
		Name:        "rebuild_sitemap_cache",
		Description: "Regenerate the chunked sitemap cache files",
		Interval:    6 * time.Hour,
		Fn: func(ctx context.Context) error {
			return a.sitemapSvc.Rebuild()
		},
	})

	a.sched.Register(cron.Job{
		Name:        "prune_settings_backups",
		Description: "Drop old settings snapshots, keeping the newest ones",
		Interval:    24 * time.Hour,
		Fn: func(ctx context.Context) error {
			removed, err := a.settingsSvc.PruneBackups(backupsToKeep)
			if err != nil {
				return err
			}
			if removed > 0 {
				a.log.Info("pruned settings backups", zap.Int("removed", removed))
			}
			return nil
		},
	})

	if a.cfg.S3.Enable {
		uploader := media.NewS3Uploader(a.cfg.S3)
		a.sched.Register(cron.Job{
			Name:        "upload_backup_s3",
			Description: "Export all settings and push the backup to S3",
			Interval:    24 * time.Hour,
			Fn: func(ctx context.Context) error {
				return a.uploadBackup(ctx, uploader)
			},
		})
	}
}

// uploadBackup writes a full settings export to the backups directory and
// pushes the same file to the configured S3 bucket.
func (a *App) uploadBackup(ctx context.Context, uploader *media.S3Uploader) error {
	env, err := a.exporter.Export(ctx, settings.Categories, true)
	if err != nil {
		return fmt.Errorf("export for backup: %w", err)
	}

	raw, err := json.MarshalIndent(env, "", "  ")
	if err != nil {
		return fmt.Errorf("encode backup: %w", err)
	}

	name := "backup-" + time.Now().Format("2006-01-02T15-04-05") + ".json"
	dir := a.cfg.BackupsDir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create backups dir: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, name), raw, 0o644); err != nil {
		return fmt.Errorf("write backup file: %w", err)
	}

	url, err := uploader.Upload(ctx, name, raw, "application/json")
	if err != nil {
		return err
	}
	a.log.Info("settings backup uploaded", zap.String("url", url))
	return nil
}
