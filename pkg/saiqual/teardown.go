package saiqual

import (
	"context"
	"fmt"

	"github.com/okaravasi/sonic-mgmt/pkg/poll"
	"github.com/okaravasi/sonic-mgmt/pkg/remote"
)

// baselineServices must be running again after the configuration reload.
var baselineServices = []string{"swss", "syncd"}

// teardown reverts every resource the deployment reached, newest first.
// It never stops early. A step that succeeds clears its mark in
// c.progress, so what is left afterwards is the work still pending.
func (c *Controller) teardown(ctx context.Context) []error {
	p := c.progress
	var errs []error
	step := func(name string, done *bool, fn func() error) {
		if err := fn(); err != nil {
			c.log.Warnf("Teardown step %q failed: %v", name, err)
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
			return
		}
		*done = false
	}

	if p.ContainerStarted {
		step("stop container", &c.progress.ContainerStarted, func() error { return c.stopAndRemove(ctx) })
	}

	if p.ImagePrepared || p.WarmbootInit {
		if err := c.resolveImages(ctx); err != nil {
			errs = append(errs, fmt.Errorf("revert %s: %w", c.desc.Name, err))
		} else if c.desc.Name == SyncdContainer {
			if p.ImagePrepared {
				step("restore syncd", &c.progress.ImagePrepared, func() error { return c.restoreDefaultSyncd(ctx) })
			}
		} else {
			if p.WarmbootInit {
				step("warmboot restore", &c.progress.WarmbootInit, func() error { return c.warmbootProfile(ctx, "restore") })
			}
			if p.ImagePrepared {
				step("remove saiserver", &c.progress.ImagePrepared, func() error { return c.removeSaiserver(ctx) })
			}
		}
	}

	if p.ScriptsCopied {
		step("delete scripts", &c.progress.ScriptsCopied, func() error { return c.deleteScripts(ctx) })
	}
	if p.Any() {
		// ServicesStopped doubles as the pending config reload.
		c.progress.ServicesStopped = true
		step("config reload", &c.progress.ServicesStopped, func() error { return c.reloadConfig(ctx) })
	}
	return errs
}

func (c *Controller) removeSaiserver(ctx context.Context) error {
	c.log.Infof("Deleting saiserver from %s", c.deps.DUT.Host())
	if err := c.deps.Runtime.RemoveContainer(ctx, SaiserverContainer); err != nil {
		return err
	}
	c.log.Infof("Removing image %s", c.images.Image)
	if err := c.deps.Runtime.RemoveImage(ctx, c.images.Image); err != nil {
		return err
	}
	c.removeRegistryImage(ctx)
	return nil
}

// restoreDefaultSyncd points docker-syncd-<vendor>:latest back at the image
// shipped with the OS.
func (c *Controller) restoreDefaultSyncd(ctx context.Context) error {
	if _, err := remote.Run(ctx, c.deps.DUT, "sudo systemctl stop swss"); err != nil {
		return err
	}
	if err := c.deps.Runtime.RemoveContainer(ctx, SyncdContainer); err != nil {
		return err
	}
	stock := SyncdImage(c.images.Vendor)
	if err := c.deps.Runtime.TagImage(ctx, stock+":"+c.images.OSVersion, stock+":latest"); err != nil {
		return err
	}
	c.removeRegistryImage(ctx)
	return nil
}

// removeRegistryImage drops the pulled image. It may already be gone.
func (c *Controller) removeRegistryImage(ctx context.Context) {
	ref := c.registryRef()
	if err := c.deps.Runtime.RemoveImage(ctx, ref); err != nil {
		c.log.Debugf("Ignoring failure to remove %s: %v", ref, err)
	}
}

func (c *Controller) deleteScripts(ctx context.Context) error {
	var first error
	for _, script := range c.opts.Scripts {
		path := c.opts.remotePath(script)
		c.log.Infof("Deleting %s from %s", path, c.deps.DUT.Host())
		if err := c.deps.DUT.DeleteFile(ctx, path); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// reloadConfig restores the saved configuration and waits for the
// forwarding services to come back.
func (c *Controller) reloadConfig(ctx context.Context) error {
	c.log.Info("Reloading config and restarting services")
	if _, err := remote.Run(ctx, c.deps.DUT, "sudo config reload -y"); err != nil {
		return err
	}
	var down string
	ok := poll.UntilReady(ctx, c.deps.Clock, c.opts.ServiceRecover, func() (bool, error) {
		for _, svc := range baselineServices {
			up, err := c.deps.Runtime.ContainerRunning(ctx, svc)
			if err != nil {
				return false, err
			}
			if !up {
				down = svc
				return false, nil
			}
		}
		return true, nil
	})
	if !ok {
		return fmt.Errorf("%s not running %s after config reload", down, c.opts.ServiceRecover.Timeout)
	}
	return nil
}
