/*
Copyright 2025 The HCI E2E Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package main

import (
	"context"
	goflag "flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/go-logr/logr"
	"github.com/google/uuid"
	"github.com/spf13/pflag"
	"go.uber.org/zap/zapcore"
	ctrl "sigs.k8s.io/controller-runtime"
	"sigs.k8s.io/controller-runtime/pkg/log/zap"

	"github.com/hcitest/hci-e2e/api/v1beta1"
	"github.com/hcitest/hci-e2e/pkg/client"
	"github.com/hcitest/hci-e2e/pkg/document"
	"github.com/hcitest/hci-e2e/pkg/resources"
	"github.com/hcitest/hci-e2e/pkg/specs"
)

// gitCommitHash is the git commit hash of the code that is running.
var gitCommitHash string

const (
	outputYAML = "yaml"
	outputJSON = "json"
)

var kinds = []string{"vm", "volume", "template", "image", "network", "backup", "restore", "setting", "addon"}

type specgenConfig struct {
	kind      string
	name      string
	namespace string
	output    string
	apply     bool

	cpu          int64
	memory       string
	diskSize     string
	image        string
	networks     []string
	userDataFile string
	runStrategy  string
	efi          bool
	secureBoot   bool
	description  string

	url            string
	vlan           int64
	clusterNetwork string

	vm             string
	snapshot       bool
	newVM          bool
	deleteVolumes  bool
	restoreTarget  string
	settingValue   string
	addonName      string
	addonEnabled   bool
	storageClass   string
	reservedMemory string
}

func parseFlags(config *specgenConfig, args []string) error {
	fs := pflag.NewFlagSet("hci-specgen", pflag.ContinueOnError)
	fs.StringVar(&config.kind, "kind", "", fmt.Sprintf("The kind of document to render, one of %v.", kinds))
	fs.StringVar(&config.name, "name", "", "The object name. A random name is generated when empty.")
	fs.StringVar(&config.namespace, "namespace", "default", "The object namespace.")
	fs.StringVarP(&config.output, "output", "o", outputYAML, "The output format, yaml or json.")
	fs.BoolVar(&config.apply, "apply", false, "Submit the document to the platform configured by HCI_* variables.")

	fs.Int64Var(&config.cpu, "cpu", 1, "The number of CPU cores.")
	fs.StringVar(&config.memory, "memory", "2", "The memory size, in gibibytes or as a quantity.")
	fs.StringVar(&config.diskSize, "disk-size", "10", "The size of the root disk or volume, in gibibytes or as a quantity.")
	fs.StringVar(&config.image, "image", "", "The namespace/name of the image backing the root disk.")
	fs.StringSliceVar(&config.networks, "network", nil, "The namespace/name of a VLAN network to attach. Repeatable.")
	fs.StringVar(&config.userDataFile, "user-data-file", "", "A file holding cloud-config user data.")
	fs.StringVar(&config.runStrategy, "run-strategy", string(v1beta1.DefaultRunStrategy), "The machine run strategy.")
	fs.BoolVar(&config.efi, "efi", false, "Boot the machine with EFI firmware.")
	fs.BoolVar(&config.secureBoot, "secure-boot", false, "Enable secure boot; implies --efi.")
	fs.StringVar(&config.description, "description", "", "The object description.")
	fs.StringVar(&config.reservedMemory, "reserved-memory", "", "Memory reserved for the machine overhead.")
	fs.StringVar(&config.storageClass, "storage-class", "", "The storage class of a volume.")

	fs.StringVar(&config.url, "url", "", "The download URL of an image. Empty for an uploaded image.")
	fs.Int64Var(&config.vlan, "vlan", 0, "The VLAN ID of a network.")
	fs.StringVar(&config.clusterNetwork, "cluster-network", specs.DefaultClusterNetwork, "The cluster network of a VLAN network.")

	fs.StringVar(&config.vm, "vm", "", "The machine backed up, or replaced by an in-place restore.")
	fs.BoolVar(&config.snapshot, "snapshot", false, "Take a snapshot rather than a backup.")
	fs.BoolVar(&config.newVM, "new-vm", false, "Restore into a new machine.")
	fs.BoolVar(&config.deleteVolumes, "delete-volumes", false, "Delete the volumes an in-place restore replaces.")
	fs.StringVar(&config.restoreTarget, "restore-namespace", "", "The namespace of a machine restored as new.")
	fs.StringVar(&config.settingValue, "value", "", "The setting value, as JSON or a plain string. Empty restores the default.")
	fs.StringVar(&config.addonName, "addon", specs.MonitoringAddonName, "The addon to render.")
	fs.BoolVar(&config.addonEnabled, "enable", false, "Enable the addon.")

	opts := zap.Options{
		TimeEncoder: zapcore.RFC3339TimeEncoder,
	}
	goFlags := goflag.NewFlagSet("hci-specgen", goflag.ContinueOnError)
	opts.BindFlags(goFlags)
	fs.AddGoFlagSet(goFlags)
	if err := fs.Parse(args); err != nil {
		return err
	}
	ctrl.SetLogger(zap.New(zap.UseFlagOptions(&opts)))

	if config.name == "" && config.kind != "" {
		config.name = fmt.Sprintf("%s-%s", config.kind, uuid.NewString()[:8])
	}
	return validateConfig(config)
}

func validateConfig(config *specgenConfig) error {
	known := false
	for _, k := range kinds {
		if config.kind == k {
			known = true
		}
	}
	if !known {
		return fmt.Errorf("--kind must be one of %v but was %q", kinds, config.kind)
	}
	if config.output != outputYAML && config.output != outputJSON {
		return fmt.Errorf("--output must be %s or %s but was %q", outputYAML, outputJSON, config.output)
	}
	return nil
}

// parseSize reads a bare number as gibibytes and anything else as a quantity.
func parseSize(s string) v1beta1.Size {
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return v1beta1.Gigabytes(n)
	}
	return v1beta1.ParseSize(s)
}

func vmOptions(config *specgenConfig) []specs.VMOption {
	opts := []specs.VMOption{specs.WithDescription(config.description)}
	if config.reservedMemory != "" {
		opts = append(opts, specs.WithReservedMemory(config.reservedMemory))
	}
	return opts
}

// configureVM adds the disks, networks, boot settings and user data named
// by config to vm.
func configureVM(vm *specs.VMSpec, config *specgenConfig) error {
	vm.RunStrategy = v1beta1.RunStrategy(config.runStrategy)
	if config.image != "" {
		vm.AddImage("disk-0", config.image, parseSize(config.diskSize))
	} else {
		vm.AddVolume("disk-0", parseSize(config.diskSize))
	}
	for i, network := range config.networks {
		vm.AddNetwork(fmt.Sprintf("nic-%d", i+1), network)
	}
	if config.efi {
		vm.SetEFIBoot(true)
	}
	if config.secureBoot {
		vm.SetSecureBoot(true)
	}
	if config.userDataFile != "" {
		data, err := os.ReadFile(config.userDataFile)
		if err != nil {
			return fmt.Errorf("failed to read user data: %w", err)
		}
		vm.SetUserData(string(data))
	}
	return nil
}

func buildVM(config *specgenConfig) (*specs.VMSpec, error) {
	vm := specs.NewVMSpec(config.cpu, parseSize(config.memory), vmOptions(config)...)
	if err := configureVM(vm, config); err != nil {
		return nil, err
	}
	return vm, nil
}

func buildTemplate(config *specgenConfig) (*specs.TemplateSpec, error) {
	t := specs.NewTemplateSpec(config.cpu, parseSize(config.memory), vmOptions(config)...)
	if err := configureVM(&t.VMSpec, config); err != nil {
		return nil, err
	}
	return t, nil
}

func buildSetting(config *specgenConfig) (specs.Setting, error) {
	setting := specs.NewSettingSpec(config.name, nil)
	if config.settingValue == "" {
		setting.UseDefault = true
		return setting, nil
	}
	value := interface{}(config.settingValue)
	if strings.HasPrefix(config.settingValue, "{") || strings.HasPrefix(config.settingValue, "[") {
		decoded, err := document.DecodeJSONValue([]byte(config.settingValue))
		if err != nil {
			return nil, fmt.Errorf("invalid setting value: %w", err)
		}
		value = decoded
	}
	setting.Value = value
	return setting, nil
}

func buildAddon(config *specgenConfig) (specs.Addon, error) {
	switch config.addonName {
	case specs.MonitoringAddonName:
		a := specs.NewMonitoringAddon()
		a.Enabled = config.addonEnabled
		return a, nil
	case specs.LoggingAddonName:
		a := specs.NewLoggingAddon()
		a.Enabled = config.addonEnabled
		return a, nil
	default:
		return nil, fmt.Errorf("unknown addon %q", config.addonName)
	}
}

func buildRestore(config *specgenConfig) *specs.RestoreSpec {
	if config.newVM {
		return specs.RestoreForNew(config.vm, config.restoreTarget)
	}
	return specs.RestoreForExisting(config.deleteVolumes)
}

func buildBackup(config *specgenConfig) *specs.BackupSpec {
	if config.snapshot {
		return specs.ForSnapshot()
	}
	return specs.ForBackup()
}

func buildVolume(config *specgenConfig) *specs.VolumeSpec {
	opts := []specs.VolumeOption{specs.WithVolumeDescription(config.description)}
	if config.storageClass != "" {
		opts = append(opts, specs.WithStorageClass(config.storageClass))
	}
	return specs.NewVolumeSpec(parseSize(config.diskSize), opts...)
}

// render builds the document described by config without contacting the platform.
func render(config *specgenConfig) (document.Document, error) {
	switch config.kind {
	case "vm":
		vm, err := buildVM(config)
		if err != nil {
			return nil, err
		}
		return vm.ToDocument(config.name, config.namespace, "")
	case "template":
		t, err := buildTemplate(config)
		if err != nil {
			return nil, err
		}
		return t.ToDocument(config.name, config.namespace)
	case "volume":
		return buildVolume(config).ToDocument(config.name, config.namespace, config.image), nil
	case "image":
		return buildImage(config).ToDocument(config.name, config.namespace), nil
	case "network":
		return specs.NewNetworkSpec(config.vlan, config.clusterNetwork).ToDocument(config.name, config.namespace)
	case "backup":
		return buildBackup(config).ToDocument(config.name, config.namespace, config.vm), nil
	case "restore":
		return buildRestore(config).ToDocument(config.name, config.namespace, config.vm), nil
	case "setting":
		setting, err := buildSetting(config)
		if err != nil {
			return nil, err
		}
		return setting.ToDocument()
	case "addon":
		addon, err := buildAddon(config)
		if err != nil {
			return nil, err
		}
		return addon.ToDocument()
	}
	return nil, fmt.Errorf("unknown kind %q", config.kind)
}

func buildImage(config *specgenConfig) *specs.ImageSpec {
	image := specs.NewImageSpec(config.name, config.url)
	image.Description = config.description
	return image
}

// apply submits the object described by config and renders what the
// platform stored.
func apply(ctx context.Context, m *resources.Manager, config *specgenConfig) (document.Document, error) {
	switch config.kind {
	case "vm":
		vm, err := buildVM(config)
		if err != nil {
			return nil, err
		}
		created, err := m.CreateVM(ctx, config.name, config.namespace, vm)
		if err != nil {
			return nil, err
		}
		return created.ToDocument(config.name, config.namespace, "")
	case "volume":
		created, err := m.CreateVolume(ctx, config.name, config.namespace, config.image, buildVolume(config))
		if err != nil {
			return nil, err
		}
		return created.ToDocument(config.name, config.namespace, ""), nil
	case "image":
		created, err := m.CreateImage(ctx, config.name, config.namespace, buildImage(config))
		if err != nil {
			return nil, err
		}
		return created.ToDocument(config.name, config.namespace), nil
	case "network":
		created, err := m.CreateNetwork(ctx, config.name, config.namespace, specs.NewNetworkSpec(config.vlan, config.clusterNetwork))
		if err != nil {
			return nil, err
		}
		return created.ToDocument(config.name, config.namespace)
	case "backup":
		created, err := m.Backup(ctx, config.name, config.namespace, config.vm, buildBackup(config))
		if err != nil {
			return nil, err
		}
		return created.ToDocument(config.name, config.namespace, config.vm), nil
	}
	return nil, fmt.Errorf("--apply is not supported for kind %q", config.kind)
}

func encode(doc document.Document, output string) ([]byte, error) {
	if output == outputJSON {
		return document.ToJSON(doc)
	}
	return document.ToYAML(doc)
}

func run(ctx context.Context, config *specgenConfig, out io.Writer, logger logr.Logger) error {
	var doc document.Document
	var err error
	if config.apply {
		c, err := client.NewFromEnv()
		if err != nil {
			return fmt.Errorf("unable to create client: %w", err)
		}
		doc, err = apply(ctrl.LoggerInto(ctx, logger), resources.NewManager(c), config)
		if err != nil {
			return err
		}
	} else {
		doc, err = render(config)
		if err != nil {
			return err
		}
	}
	data, err := encode(doc, config.output)
	if err != nil {
		return fmt.Errorf("unable to encode %s: %w", config.kind, err)
	}
	_, err = out.Write(data)
	return err
}

func main() {
	logger := ctrl.Log.WithName("specgen")

	config := &specgenConfig{}
	if err := parseFlags(config, os.Args[1:]); err != nil {
		logger.Error(err, "invalid arguments")
		os.Exit(2)
	}

	logger.V(1).Info("Rendering document", "kind", config.kind, "name", config.name, "Git Hash", gitCommitHash)
	if err := run(ctrl.SetupSignalHandler(), config, os.Stdout, logger); err != nil {
		logger.Error(err, "unable to render document")
		os.Exit(1)
	}
}
