package dut

import (
	"context"
	"errors"
	"testing"

	"github.com/okaravasi/sonic-mgmt/internal/testutil"
	"github.com/okaravasi/sonic-mgmt/pkg/util"
)

func TestRegistryRef(t *testing.T) {
	reg := Registry{Host: "reg.example.com"}
	if got, want := reg.Ref("docker-saiserverv2-brcm", "20230531.17"), "reg.example.com/docker-saiserverv2-brcm:20230531.17"; got != want {
		t.Errorf("Ref() = %q, want %q", got, want)
	}
	if got := (Registry{}).Ref("img", "1"); got != "img:1" {
		t.Errorf("Ref() without host = %q", got)
	}
}

func TestDownload(t *testing.T) {
	ctx := context.Background()
	reg := Registry{Host: "reg.example.com", Username: "u", Password: "p"}

	rt := testutil.NewFakeRuntime()
	if err := Download(ctx, rt, reg, "docker-syncd-brcm-rpc", "1.0"); err != nil {
		t.Fatalf("Download() error = %v", err)
	}
	if !rt.HasImage("reg.example.com/docker-syncd-brcm-rpc:1.0") {
		t.Error("image not pulled")
	}

	rt = testutil.NewFakeRuntime()
	rt.PullErr = errors.New("manifest unknown")
	err := Download(ctx, rt, reg, "docker-syncd-brcm-rpc", "1.0")
	var de *util.DownloadError
	if !errors.As(err, &de) {
		t.Fatalf("Download() error = %v, want *util.DownloadError", err)
	}
	if de.Image != "reg.example.com/docker-syncd-brcm-rpc:1.0" {
		t.Errorf("DownloadError.Image = %q", de.Image)
	}
	if !errors.Is(err, util.ErrDownloadFailed) {
		t.Error("error does not match ErrDownloadFailed")
	}
}
