package saiqual

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/okaravasi/sonic-mgmt/pkg/dut"
	"github.com/okaravasi/sonic-mgmt/pkg/poll"
	"github.com/okaravasi/sonic-mgmt/pkg/remote"
	"github.com/okaravasi/sonic-mgmt/pkg/util"
)

// resolveImages derives the vendor, OS version and image names from the
// device facts. An unsupported ASIC fails here, before anything on the
// device is touched.
func (c *Controller) resolveImages(ctx context.Context) error {
	if c.images.resolved() {
		return nil
	}
	if c.deps.Facts == nil {
		facts, err := dut.LoadFacts(ctx, c.deps.DUT)
		if err != nil {
			return util.NewSetupError(c.desc.Name, "read device facts", err)
		}
		c.deps.Facts = facts
	}
	vendor, err := c.deps.Facts.VendorID()
	if err != nil {
		c.log.Error(err)
		return err
	}

	c.images.Vendor = vendor
	c.images.OSVersion = c.deps.Facts.OSVersion()
	if c.desc.Name == SaiserverContainer {
		c.images.Image = c.opts.SaiserverImage(vendor)
	} else {
		c.images.Image = SyncdRPCImage(vendor)
	}
	c.log.Debugf("vendor=%s os_version=%s image=%s", vendor, c.images.OSVersion, c.images.Image)
	return nil
}

// registryRef is the image reference in the registry, tagged with the OS
// version.
func (c *Controller) registryRef() string {
	return c.deps.Registry.Ref(c.images.Image, c.images.OSVersion)
}

// run executes cmd as a setup step, turning any failure into a SetupError.
func (c *Controller) run(ctx context.Context, step, cmd string) error {
	if _, err := remote.Run(ctx, c.deps.DUT, cmd); err != nil {
		return util.NewSetupError(c.desc.Name, step, err)
	}
	return nil
}

func (c *Controller) copyScripts(ctx context.Context) error {
	if err := c.run(ctx, "copy scripts", "sudo mkdir -p "+remote.Quote(c.opts.RemoteBinDir)); err != nil {
		return err
	}
	c.progress.ScriptsCopied = true
	c.persist()

	for _, script := range c.opts.Scripts {
		src := filepath.Join(c.opts.ScriptsDir, script)
		dest := c.opts.remotePath(script)
		c.log.Infof("Copying %s to %s:%s", script, c.deps.DUT.Host(), dest)
		if err := c.deps.DUT.CopyFile(ctx, src, dest); err != nil {
			return util.NewSetupError(c.desc.Name, "copy "+script, err)
		}
		if err := c.run(ctx, "chmod "+script, "sudo chmod +x "+remote.Quote(dest)); err != nil {
			return err
		}
	}
	return nil
}

// stopServices brings down every service that would compete with the test
// container for the ASIC, then checks they stay down.
func (c *Controller) stopServices(ctx context.Context) error {
	c.log.Info("Stopping SONiC services")
	remote.RunIgnoreErrors(ctx, c.deps.DUT, "sudo "+c.opts.remotePath(ServicesScript)+" -o stop")
	c.progress.ServicesStopped = true
	c.persist()

	var running []string
	stopped := poll.UntilReady(ctx, c.deps.Clock, c.opts.ServiceStop, func() (bool, error) {
		running = running[:0]
		for _, svc := range c.opts.Services {
			up, err := c.deps.Runtime.ContainerRunning(ctx, svc)
			if err != nil {
				c.log.Debugf("Cannot get %s running state: %v", svc, err)
				continue
			}
			if !up {
				continue
			}
			running = append(running, svc)
			c.log.Infof("Docker %s is still running, stopping it", svc)
			if err := c.deps.Runtime.StopContainer(ctx, svc); err != nil {
				c.log.Warnf("docker stop %s: %v", svc, err)
			}
		}
		return len(running) == 0, nil
	})
	if !stopped {
		return util.NewSetupError(c.desc.Name, "stop services",
			fmt.Errorf("docker %s failed to shut down in %s", strings.Join(running, ","), c.opts.ServiceStop.Timeout))
	}
	return nil
}

func (c *Controller) prepareContainer(ctx context.Context) error {
	c.log.Infof("Preparing %s as the sai test container", c.desc.Name)
	if c.desc.Name == SyncdContainer {
		return c.deploySyncdRPC(ctx)
	}
	if err := c.deploySaiserver(ctx); err != nil {
		return err
	}

	cmd := remote.Join("sudo", c.opts.remotePath(SaiserverScript), "-v", c.opts.ThriftVersion())
	if err := c.run(ctx, "prepare saiserver service", cmd); err != nil {
		return err
	}
	if c.opts.Warmboot() {
		if err := c.warmbootProfile(ctx, "init"); err != nil {
			return util.NewSetupError(c.desc.Name, "warmboot init", err)
		}
		c.progress.WarmbootInit = true
		c.persist()
		if err := c.run(ctx, "warmboot restart", c.opts.containerScript("stop")); err != nil {
			return err
		}
		if err := c.run(ctx, "warmboot restart", c.opts.containerScript("start")); err != nil {
			return err
		}
	}
	return nil
}

// prepareDownload shuts BGP down so the pull goes over the management
// network and raises the socket buffer limits the RPC server needs.
func (c *Controller) prepareDownload(ctx context.Context) error {
	if err := c.run(ctx, "bgp shutdown", "sudo config bgp shutdown all"); err != nil {
		return err
	}
	return c.raiseSocketBuffers(ctx)
}

func (c *Controller) raiseSocketBuffers(ctx context.Context) error {
	size := strconv.Itoa(c.opts.SocketBufferMax)
	for _, key := range []string{"net.core.rmem_max", "net.core.wmem_max"} {
		if err := c.run(ctx, "sysctl", "sudo sysctl -w "+key+"="+size); err != nil {
			return err
		}
	}
	return nil
}

func (c *Controller) download(ctx context.Context) error {
	c.log.Infof("Loading docker image %s", c.images.Image)
	if err := dut.Download(ctx, c.deps.Runtime, c.deps.Registry, c.images.Image, c.images.OSVersion); err != nil {
		return util.NewSetupError(c.desc.Name, "download "+c.images.Image, err)
	}
	return nil
}

func (c *Controller) tag(ctx context.Context, source, target string) error {
	if err := c.deps.Runtime.TagImage(ctx, source, target); err != nil {
		return util.NewSetupError(c.desc.Name, "tag "+target, err)
	}
	return nil
}

func (c *Controller) deploySaiserver(ctx context.Context) error {
	ref := c.registryRef()
	c.progress.ImagePrepared = true
	c.persist()

	exists, err := c.deps.Runtime.ImageExists(ctx, ref)
	if err != nil {
		return util.NewSetupError(c.desc.Name, "image lookup", err)
	}
	if exists {
		c.log.Infof("Image %s already present, skipping download", ref)
		return c.tag(ctx, ref, c.images.Image+":latest")
	}

	if err := c.prepareDownload(ctx); err != nil {
		return err
	}
	if err := c.download(ctx); err != nil {
		return err
	}
	return c.tag(ctx, ref, c.images.Image+":latest")
}

// deploySyncdRPC replaces the stock syncd with its RPC build by retagging
// the RPC image as the stock image's latest.
func (c *Controller) deploySyncdRPC(ctx context.Context) error {
	c.progress.ImagePrepared = true
	c.persist()

	if err := c.run(ctx, "bgp shutdown", "sudo config bgp shutdown all"); err != nil {
		return err
	}
	if err := c.run(ctx, "stop swss", "sudo systemctl stop swss"); err != nil {
		return err
	}
	if err := c.deps.Runtime.RemoveContainer(ctx, SyncdContainer); err != nil {
		return util.NewSetupError(c.desc.Name, "remove syncd", err)
	}
	if err := c.raiseSocketBuffers(ctx); err != nil {
		return err
	}
	if err := c.download(ctx); err != nil {
		return err
	}
	c.log.Infof("Swapping container image %s for %s", SyncdImage(c.images.Vendor), c.images.Image)
	return c.tag(ctx, c.registryRef(), SyncdImage(c.images.Vendor)+":latest")
}

func (c *Controller) warmbootProfile(ctx context.Context, op string) error {
	c.log.Infof("config warmboot %s", op)
	_, err := remote.Run(ctx, c.deps.DUT, "sudo "+c.opts.remotePath(WarmbootProfileScript)+" -o "+op)
	return err
}

// startWithRetry starts the container unless its endpoint already answers.
// Each attempt recreates the container from scratch, so a container left
// half-started by an earlier attempt never lingers.
func (c *Controller) startWithRetry(ctx context.Context) error {
	c.log.Infof("Checking the rpc connection before starting %s", c.desc.Name)
	if poll.UntilReady(ctx, c.deps.Clock, c.opts.AlreadyRunning, c.probeOp(ctx)) {
		c.log.Infof("rpc connection already set up before starting %s", c.desc.Name)
		c.progress.ContainerStarted = true
		return nil
	}

	c.log.Infof("Attempting to start %s", c.desc.Name)
	if !poll.UntilReady(ctx, c.deps.Clock, c.opts.StartRetry, func() (bool, error) {
		return c.recreate(ctx)
	}) {
		return c.readinessError(c.opts.StartRetry.Timeout)
	}

	c.log.Infof("Waiting %s for the container to warm up", c.opts.WarmUp)
	if err := poll.Sleep(ctx, c.deps.Clock, c.opts.WarmUp); err != nil {
		return err
	}
	c.log.Infof("Started %s at %s", c.desc.Name, c.desc.Endpoint())
	return nil
}

// recreate is one start attempt: remove any existing container, start a
// fresh one and poll its endpoint.
func (c *Controller) recreate(ctx context.Context) (bool, error) {
	exists, err := c.deps.Runtime.ContainerExists(ctx, c.desc.Name)
	if err != nil {
		return false, err
	}
	if exists {
		c.log.Infof("%s already exists, removing it for a clean restart", c.desc.Name)
		if err := c.stopAndRemove(ctx); err != nil {
			return false, err
		}
	}

	c.log.Infof("Starting %s", c.desc.Name)
	c.progress.ContainerStarted = true
	c.persist()
	if _, err := remote.Run(ctx, c.deps.DUT, c.opts.containerScript("start")); err != nil {
		return false, err
	}

	if !poll.UntilReady(ctx, c.deps.Clock, c.opts.RPCCheck, c.probeOp(ctx)) {
		c.log.Warnf("%s did not answer within %s, restarting it", c.desc.Name, c.opts.RPCCheck.Timeout)
		return false, nil
	}
	return true, nil
}

func (c *Controller) stopAndRemove(ctx context.Context) error {
	c.log.Infof("Stopping container %s", c.desc.Name)
	if _, err := remote.Run(ctx, c.deps.DUT, c.opts.containerScript("stop")); err != nil {
		return err
	}
	return c.deps.Runtime.RemoveContainer(ctx, c.desc.Name)
}
