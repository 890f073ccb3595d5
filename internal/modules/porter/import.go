package porter

import (
	"context"
	"fmt"
	"reflect"
	"sort"

	"github.com/surerank/core/internal/modules/settings"
	"go.uber.org/zap"
)

// Importer reconciles an incoming envelope against the live settings store.
// The flow is validate, optional backup, per-category reconcile into a
// working copy, one persisting write, then verify. The store is mutated at
// most twice per call (backup plus settings) regardless of field count.
type Importer struct {
	store  SettingsStore
	images *Resolver
	compat CompatFunc
	log    *zap.Logger
}

func NewImporter(store SettingsStore, images *Resolver, compat CompatFunc, log *zap.Logger) *Importer {
	if compat == nil {
		compat = AlwaysCompatible
	}
	return &Importer{store: store, images: images, compat: compat, log: log}
}

// Import runs the reconciliation state machine. Validation failures abort
// before any mutation; everything after accumulates into the result and is
// reported once at the end.
func (im *Importer) Import(ctx context.Context, env *Envelope, opts ImportOptions) *ImportResult {
	res := newImportResult()

	if env == nil {
		return res.fail("import payload is empty")
	}
	if env.Plugin != PluginName {
		return res.fail(fmt.Sprintf("envelope plugin %q is not %q", env.Plugin, PluginName))
	}
	if env.Settings == nil {
		return res.fail("envelope has no settings")
	}
	if env.Version != "" && !im.compat(env.Version) {
		return res.fail(fmt.Sprintf("envelope version %q is not compatible", env.Version))
	}

	if opts.CreateBackup && im.store.BackupBeforeImport() {
		key, err := im.store.Snapshot()
		if err != nil {
			return res.fail(fmt.Sprintf("settings backup failed: %v", err))
		}
		res.BackupKey = key
	}

	saved, err := im.store.Saved()
	if err != nil {
		return res.fail(fmt.Sprintf("reading settings failed: %v", err))
	}

	working := make(map[string]interface{}, len(saved))
	for k, v := range saved {
		working[k] = v
	}
	accepted := map[string]interface{}{}

	for _, category := range envelopeCategories(env) {
		values := env.Settings[category]
		if !settings.ValidCategory(category) {
			res.Errors = append(res.Errors, fmt.Sprintf("unknown category %q", category))
			continue
		}

		for _, key := range sortedKeys(values) {
			if !settings.KeyAllowed(category, key) {
				res.Errors = append(res.Errors,
					fmt.Sprintf("key %q is not allowed in category %q", key, category))
				continue
			}
			if _, exists := saved[key]; exists && !opts.Overwrite {
				res.Warnings = append(res.Warnings,
					fmt.Sprintf("key %q already set, skipped (overwrite disabled)", key))
				continue
			}

			value := values[key]
			if opts.ProcessImages && settings.IsImageKey(key) {
				resolved := im.images.Resolve(ctx, value, key, env.Images)
				if !reflect.DeepEqual(resolved, value) {
					res.Warnings = append(res.Warnings,
						fmt.Sprintf("image for %q stored locally as %v", key, resolved))
				}
				value = resolved
			}

			working[key] = value
			accepted[key] = value
			res.SuccessItems = append(res.SuccessItems, category+"."+key)
			res.ImportedCount++
		}
	}

	if len(accepted) > 0 {
		if err := im.store.Replace(working); err != nil {
			res.ImportedCount = 0
			res.SuccessItems = []string{}
			return res.fail(fmt.Sprintf("persisting settings failed: %v", err))
		}
		if err := im.verify(accepted); err != nil {
			res.ImportedCount = 0
			res.SuccessItems = []string{}
			return res.fail(err.Error())
		}
	}

	res.Success = res.ImportedCount > 0
	if res.Success {
		res.Message = fmt.Sprintf("imported %d settings", res.ImportedCount)
	} else {
		res.Message = "no settings were imported"
	}
	return res
}

// verify re-reads the store and confirms every accepted key holds its
// intended value. One mismatch fails the whole batch.
func (im *Importer) verify(accepted map[string]interface{}) error {
	current, err := im.store.Saved()
	if err != nil {
		return fmt.Errorf("verification read failed: %v", err)
	}

	mismatched := 0
	for key, want := range accepted {
		if !reflect.DeepEqual(current[key], want) {
			mismatched++
		}
	}
	if mismatched > 0 {
		return fmt.Errorf("verification failed: %d of %d keys do not match the stored values",
			mismatched, len(accepted))
	}
	return nil
}

// envelopeCategories returns the envelope's categories in a deterministic
// order: known categories in canonical order first, then unknown ones sorted.
func envelopeCategories(env *Envelope) []string {
	var ordered []string
	for _, category := range settings.Categories {
		if _, ok := env.Settings[category]; ok {
			ordered = append(ordered, category)
		}
	}

	var unknown []string
	for category := range env.Settings {
		if !settings.ValidCategory(category) {
			unknown = append(unknown, category)
		}
	}
	sort.Strings(unknown)
	return append(ordered, unknown...)
}

func sortedKeys(values map[string]interface{}) []string {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
