package dut

import (
	"context"

	"github.com/okaravasi/sonic-mgmt/pkg/util"
)

// Registry is the docker registry serving the SAI test images.
type Registry struct {
	Host     string `yaml:"host" json:"host"`
	Username string `yaml:"username,omitempty" json:"username,omitempty"`
	Password string `yaml:"password,omitempty" json:"-"`
}

// Ref returns the fully qualified reference of image:tag in the registry.
func (r Registry) Ref(image, tag string) string {
	if r.Host == "" {
		return image + ":" + tag
	}
	return r.Host + "/" + image + ":" + tag
}

// Download pulls image:tag from reg onto the device. Any failure is
// reported as *util.DownloadError.
func Download(ctx context.Context, rt Runtime, reg Registry, image, tag string) error {
	ref := reg.Ref(image, tag)
	util.Infof("Pulling %s", ref)
	if err := rt.PullImage(ctx, ref, reg.Username, reg.Password); err != nil {
		return &util.DownloadError{Image: ref, Err: err}
	}
	return nil
}
