package porter

import (
	"context"
	"fmt"
	"strconv"
	"testing"

	"github.com/surerank/core/internal/models"
	"github.com/surerank/core/internal/modules/settings"
	"go.uber.org/zap"
)

// fakeStore is an in-memory SettingsStore.
type fakeStore struct {
	saved        map[string]interface{}
	snapshots    map[string]map[string]interface{}
	backupEnable bool
	replaceCalls int
	failReplace  bool
}

func newFakeStore(saved map[string]interface{}) *fakeStore {
	if saved == nil {
		saved = map[string]interface{}{}
	}
	return &fakeStore{
		saved:        saved,
		snapshots:    map[string]map[string]interface{}{},
		backupEnable: true,
	}
}

func (f *fakeStore) Saved() (map[string]interface{}, error) {
	out := map[string]interface{}{}
	for k, v := range f.saved {
		out[k] = v
	}
	return out, nil
}

func (f *fakeStore) All() (map[string]interface{}, error) {
	out := map[string]interface{}{}
	for k, v := range settings.Defaults {
		out[k] = v
	}
	for k, v := range f.saved {
		out[k] = v
	}
	return out, nil
}

func (f *fakeStore) Replace(values map[string]interface{}) error {
	f.replaceCalls++
	if f.failReplace {
		return fmt.Errorf("write refused")
	}
	next := map[string]interface{}{}
	for k, v := range values {
		next[k] = v
	}
	f.saved = next
	return nil
}

func (f *fakeStore) Snapshot() (string, error) {
	key := "surerank_settings_backup_" + strconv.Itoa(len(f.snapshots)+1)
	copied, _ := f.Saved()
	f.snapshots[key] = copied
	return key, nil
}

func (f *fakeStore) BackupBeforeImport() bool { return f.backupEnable }

// fakeObjects is an in-memory content-addressed ObjectStore.
type fakeObjects struct {
	byContent map[string]*models.AttachmentModel
	saves     int
}

func newFakeObjects() *fakeObjects {
	return &fakeObjects{byContent: map[string]*models.AttachmentModel{}}
}

func contentKey(size int64, hash string) string {
	return fmt.Sprintf("%d:%s", size, hash)
}

func (f *fakeObjects) FindExisting(size int64, hash, _ string) (*models.AttachmentModel, error) {
	return f.byContent[contentKey(size, hash)], nil
}

func (f *fakeObjects) SaveObject(filename string, data []byte) (*models.AttachmentModel, error) {
	size := int64(len(data))
	hash := fmt.Sprintf("%x", data)
	if existing := f.byContent[contentKey(size, hash)]; existing != nil {
		return existing, nil
	}
	f.saves++
	att := &models.AttachmentModel{
		FileName: filename,
		FileURL:  "/objects/2026/01/" + filename,
		ByteSize: size,
		Hash:     hash,
	}
	f.byContent[contentKey(size, hash)] = att
	return att, nil
}

func (f *fakeObjects) LocalPathFromURL(url string) (string, bool) {
	if len(url) > 9 && url[:9] == "/objects/" {
		return "/tmp" + url, true
	}
	return "", false
}

type fakeFetcher struct {
	responses map[string][]byte
	calls     int
}

func (f *fakeFetcher) Fetch(_ context.Context, url string) ([]byte, error) {
	f.calls++
	if data, ok := f.responses[url]; ok {
		return data, nil
	}
	return nil, fmt.Errorf("fetch %q: connection refused", url)
}

func newTestPorter(store *fakeStore, objects *fakeObjects, fetch Fetcher) (*Exporter, *Importer) {
	log := zap.NewNop()
	if fetch == nil {
		fetch = &fakeFetcher{}
	}
	exporter := NewExporter(store, objects, fetch, log)
	importer := NewImporter(store, NewResolver(objects, fetch, log), nil, log)
	return exporter, importer
}

func TestExportGeneralMergesDefaultsAndSaved(t *testing.T) {
	store := newFakeStore(map[string]interface{}{"page_title": "Home"})
	exporter, _ := newTestPorter(store, newFakeObjects(), nil)

	env, err := exporter.Export(context.Background(), []string{"general"}, false)
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}

	general, ok := env.Settings["general"]
	if !ok {
		t.Fatal("envelope is missing the general category")
	}
	if got := general["page_title"]; got != "Home" {
		t.Errorf("page_title = %v, want \"Home\"", got)
	}
	if got := general["separator"]; got != "-" {
		t.Errorf("separator default = %v, want \"-\"", got)
	}
	for key := range general {
		if !settings.KeyAllowed("general", key) {
			t.Errorf("exported key %q is outside the general whitelist", key)
		}
	}
	if _, leaked := general["twitter_card_type"]; leaked {
		t.Error("social key leaked into the general category")
	}
}

func TestExportSkipsInvalidCategories(t *testing.T) {
	store := newFakeStore(map[string]interface{}{"page_title": "Home"})
	exporter, _ := newTestPorter(store, newFakeObjects(), nil)

	env, err := exporter.Export(context.Background(), []string{"general", "bogus"}, false)
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	if _, ok := env.Settings["bogus"]; ok {
		t.Error("invalid category was exported")
	}
}

func TestExportFailsOnlyWhenEmpty(t *testing.T) {
	exporter, _ := newTestPorter(newFakeStore(nil), newFakeObjects(), nil)

	if _, err := exporter.Export(context.Background(), []string{"bogus"}, false); err != ErrNothingToExport {
		t.Errorf("Export() error = %v, want ErrNothingToExport", err)
	}
}

func TestImportExportRoundTrip(t *testing.T) {
	original := map[string]interface{}{
		"page_title":        "Home",
		"separator":         "|",
		"twitter_card_type": "summary",
	}
	source := newFakeStore(original)
	exporter, _ := newTestPorter(source, newFakeObjects(), nil)

	env, err := exporter.Export(context.Background(), settings.Categories, false)
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}

	target := newFakeStore(nil)
	_, importer := newTestPorter(target, newFakeObjects(), nil)

	res := importer.Import(context.Background(), env, ImportOptions{Overwrite: true, CreateBackup: false})
	if !res.Success {
		t.Fatalf("import failed: %v", res.Errors)
	}

	for key, want := range original {
		if got := target.saved[key]; got != want {
			t.Errorf("round-trip %s = %v, want %v", key, got, want)
		}
	}
	if target.replaceCalls != 1 {
		t.Errorf("store writes = %d, want exactly 1", target.replaceCalls)
	}
}

func TestImportRejectsForeignPlugin(t *testing.T) {
	store := newFakeStore(map[string]interface{}{"page_title": "Keep"})
	_, importer := newTestPorter(store, newFakeObjects(), nil)

	env := &Envelope{
		Plugin:   "someone-else",
		Settings: map[string]map[string]interface{}{"general": {"page_title": "Evil"}},
	}
	res := importer.Import(context.Background(), env, DefaultImportOptions())

	if res.Success {
		t.Error("import of a foreign envelope reported success")
	}
	if res.ImportedCount != 0 {
		t.Errorf("imported_count = %d, want 0", res.ImportedCount)
	}
	if store.saved["page_title"] != "Keep" {
		t.Error("store was mutated by a rejected envelope")
	}
	if store.replaceCalls != 0 {
		t.Errorf("store writes = %d, want 0", store.replaceCalls)
	}
}

func TestImportWhitelistEnforcement(t *testing.T) {
	store := newFakeStore(nil)
	_, importer := newTestPorter(store, newFakeObjects(), nil)

	env := &Envelope{
		Plugin: PluginName,
		Settings: map[string]map[string]interface{}{
			"general": {
				"page_title":    "Home",
				"evil_callback": "system('rm -rf /')",
			},
			"made_up": {"anything": 1},
		},
	}
	res := importer.Import(context.Background(), env, ImportOptions{Overwrite: true})

	if _, written := store.saved["evil_callback"]; written {
		t.Error("non-whitelisted key was written to the store")
	}
	if _, written := store.saved["anything"]; written {
		t.Error("unknown-category key was written to the store")
	}
	if store.saved["page_title"] != "Home" {
		t.Error("whitelisted key was not written")
	}
	if len(res.Errors) != 2 {
		t.Errorf("errors = %v, want exactly 2 policy rejections", res.Errors)
	}
	if res.ImportedCount != 1 {
		t.Errorf("imported_count = %d, want 1", res.ImportedCount)
	}
}

func TestImportOverwritePolicy(t *testing.T) {
	store := newFakeStore(map[string]interface{}{"page_title": "Original"})
	_, importer := newTestPorter(store, newFakeObjects(), nil)

	env := &Envelope{
		Plugin: PluginName,
		Settings: map[string]map[string]interface{}{
			"general": {
				"page_title": "Replacement",
				"separator":  "|",
			},
		},
	}
	res := importer.Import(context.Background(), env, ImportOptions{Overwrite: false, CreateBackup: false})

	if store.saved["page_title"] != "Original" {
		t.Errorf("existing value overwritten: %v", store.saved["page_title"])
	}
	if store.saved["separator"] != "|" {
		t.Error("fresh key was not imported")
	}
	if res.ImportedCount != 1 {
		t.Errorf("imported_count = %d, want 1 (skipped key must not count)", res.ImportedCount)
	}
	if len(res.Warnings) == 0 {
		t.Error("skipped existing key should record a warning")
	}
	if len(res.Errors) != 0 {
		t.Errorf("skip on overwrite=false must be a warning, got errors %v", res.Errors)
	}
}

func TestImportCreatesBackupBeforeMutation(t *testing.T) {
	store := newFakeStore(map[string]interface{}{"page_title": "Before"})
	_, importer := newTestPorter(store, newFakeObjects(), nil)

	env := &Envelope{
		Plugin:   PluginName,
		Settings: map[string]map[string]interface{}{"general": {"page_title": "After"}},
	}
	res := importer.Import(context.Background(), env, DefaultImportOptions())

	if res.BackupKey == "" {
		t.Fatal("no backup key returned")
	}
	snap, ok := store.snapshots[res.BackupKey]
	if !ok {
		t.Fatalf("snapshot %q was not stored", res.BackupKey)
	}
	if snap["page_title"] != "Before" {
		t.Errorf("snapshot holds %v, want the pre-import value", snap["page_title"])
	}
}

func TestImportBackupRespectsGlobalFlag(t *testing.T) {
	store := newFakeStore(nil)
	store.backupEnable = false
	_, importer := newTestPorter(store, newFakeObjects(), nil)

	env := &Envelope{
		Plugin:   PluginName,
		Settings: map[string]map[string]interface{}{"general": {"page_title": "X"}},
	}
	res := importer.Import(context.Background(), env, DefaultImportOptions())

	if res.BackupKey != "" {
		t.Error("backup was taken despite the global flag being off")
	}
	if !res.Success {
		t.Errorf("import failed: %v", res.Errors)
	}
}

func TestImportPersistFailureFlipsResult(t *testing.T) {
	store := newFakeStore(nil)
	store.failReplace = true
	_, importer := newTestPorter(store, newFakeObjects(), nil)

	env := &Envelope{
		Plugin:   PluginName,
		Settings: map[string]map[string]interface{}{"general": {"page_title": "X"}},
	}
	res := importer.Import(context.Background(), env, ImportOptions{Overwrite: true})

	if res.Success {
		t.Error("import reported success after a failed persist")
	}
	if res.ImportedCount != 0 {
		t.Errorf("imported_count = %d, want 0 after failed persist", res.ImportedCount)
	}
}

func TestImportInlineImageDedup(t *testing.T) {
	imageBytes := []byte("fake-png-bytes")
	inline := InlineImage{
		Data:     encodeInlineImage("http://old.example/logo.png", imageBytes).Data,
		Mime:     "image/png",
		Filename: "logo.png",
		Size:     int64(len(imageBytes)),
	}

	objects := newFakeObjects()
	store := newFakeStore(nil)
	_, importer := newTestPorter(store, objects, nil)

	env := &Envelope{
		Plugin: PluginName,
		Settings: map[string]map[string]interface{}{
			"images": {"fallback_image_url": "http://old.example/logo.png"},
		},
		Images: map[string]InlineImage{"http://old.example/logo.png": inline},
	}

	first := importer.Import(context.Background(), env, ImportOptions{Overwrite: true, ProcessImages: true})
	if !first.Success {
		t.Fatalf("first import failed: %v", first.Errors)
	}
	firstURL, _ := store.saved["fallback_image_url"].(string)
	if firstURL == "http://old.example/logo.png" {
		t.Fatal("inline image was not resolved to a stored object URL")
	}

	// Same bytes again: must reuse the stored object, never create a second.
	second := importer.Import(context.Background(), env, ImportOptions{Overwrite: true, ProcessImages: true})
	if !second.Success {
		t.Fatalf("second import failed: %v", second.Errors)
	}
	if got, _ := store.saved["fallback_image_url"].(string); got != firstURL {
		t.Errorf("resolved URL changed across imports: %q vs %q", got, firstURL)
	}
	if objects.saves != 1 {
		t.Errorf("stored objects = %d, want 1", objects.saves)
	}
}

func TestImportLocalURLLeftUnchanged(t *testing.T) {
	store := newFakeStore(nil)
	objects := newFakeObjects()
	_, importer := newTestPorter(store, objects, nil)

	env := &Envelope{
		Plugin: PluginName,
		Settings: map[string]map[string]interface{}{
			"images": {"fallback_image_url": "/objects/2026/01/logo.png"},
		},
	}
	res := importer.Import(context.Background(), env, ImportOptions{Overwrite: true, ProcessImages: true})
	if !res.Success {
		t.Fatalf("import failed: %v", res.Errors)
	}
	if store.saved["fallback_image_url"] != "/objects/2026/01/logo.png" {
		t.Errorf("local URL rewritten to %v", store.saved["fallback_image_url"])
	}
	if objects.saves != 0 {
		t.Errorf("stored objects = %d, want 0 for an already-local URL", objects.saves)
	}
}

func TestImportFetchFailureKeepsOriginalValue(t *testing.T) {
	store := newFakeStore(nil)
	_, importer := newTestPorter(store, newFakeObjects(), &fakeFetcher{})

	env := &Envelope{
		Plugin: PluginName,
		Settings: map[string]map[string]interface{}{
			"images":  {"fallback_image_url": "http://unreachable.example/a.png"},
			"general": {"page_title": "Home"},
		},
	}
	res := importer.Import(context.Background(), env, ImportOptions{Overwrite: true, ProcessImages: true})

	if !res.Success {
		t.Fatalf("image fetch failure aborted the import: %v", res.Errors)
	}
	if store.saved["fallback_image_url"] != "http://unreachable.example/a.png" {
		t.Errorf("failed image field = %v, want the original literal", store.saved["fallback_image_url"])
	}
	if store.saved["page_title"] != "Home" {
		t.Error("unrelated field was lost")
	}
}
