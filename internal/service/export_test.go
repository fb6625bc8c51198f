package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/elektroprotokolle/pruefprotokoll/internal/domain"
)

type fakeUploader struct {
	key  string
	data []byte
}

func (u *fakeUploader) UploadExport(_ context.Context, key string, data []byte) (string, error) {
	u.key, u.data = key, data
	return "https://exports.example/" + key, nil
}

func TestExport(t *testing.T) {
	svcs := newServices()
	p := mustCreate(t, svcs.Protocols, header("LVUM-123"))

	doc, err := svcs.Exports.Export(p.ID())
	if err != nil {
		t.Fatal(err)
	}
	if doc.Filename != "pruefprotokoll_LVUM-123_2026-04-01.json" {
		t.Errorf("filename = %q", doc.Filename)
	}
	var back domain.Protocol
	if err := json.Unmarshal(doc.Data, &back); err != nil || back.ID() != p.ID() {
		t.Errorf("export does not decode: %v", err)
	}

	if _, err := svcs.Exports.Export("missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing: %v", err)
	}
}

func TestPublish(t *testing.T) {
	if _, err := newServices().Exports.Publish(context.Background(), "x"); !errors.Is(err, ErrPublishingDisabled) {
		t.Fatalf("without uploader: %v", err)
	}

	up := &fakeUploader{}
	svcs := newServices(WithUploader(up))
	p := mustCreate(t, svcs.Protocols, header("LVUM-123"))

	pub, err := svcs.Exports.Publish(context.Background(), p.ID())
	if err != nil {
		t.Fatal(err)
	}
	if pub.Key != "protocols/id-1/pruefprotokoll_LVUM-123_2026-04-01.json" || !strings.HasSuffix(pub.URL, pub.Key) {
		t.Errorf("publication = %+v", pub)
	}
	if len(up.data) == 0 || up.key != pub.Key {
		t.Errorf("uploaded %q (%d bytes)", up.key, len(up.data))
	}
	if _, err := svcs.Exports.Publish(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing: %v", err)
	}
}
