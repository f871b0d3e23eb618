// Package demo is the reference integration: a small virtual device
// whose wizards exercise the whole step-handler contract. It doubles as
// documentation for integration authors and as the fixture behind the
// interactive setup command.
package demo

import (
	"context"
	"fmt"

	"github.com/hearthd/hearthd/pkg/domain"
	"github.com/hearthd/hearthd/pkg/ports"
	"github.com/hearthd/hearthd/pkg/registry"
	"github.com/hearthd/hearthd/pkg/schema"
)

// Domain is the integration domain the demo registers under.
const Domain = "demo"

var userSchema = schema.MustNew(
	schema.Required("name", schema.String()),
	schema.Optional("host", schema.String()).Default("localhost"),
	schema.Optional("port", schema.Int()).Default(8123).Constrain("min", 1).Constrain("max", 65535),
	schema.Optional("password", schema.String()).Secret(),
)

var confirmSchema = schema.MustNew(
	schema.Optional("confirm", schema.Bool()).Default(true),
)

// Register adds the demo wizards to a handler registry.
func Register(reg *registry.Registry) {
	reg.Register(Domain, NewConfigFlow)
	reg.RegisterOptions(Domain, NewOptionsFlow)
}

// ConfigFlow walks a user through naming and addressing the virtual
// device. Discovery and import sources take shortcuts, like a real
// integration would; the "link" and "scan" sources demonstrate the
// external-step and progress result types.
type ConfigFlow struct {
	flow    *domain.Flow
	scanned bool
}

// NewConfigFlow is the ports.HandlerFactory for config flows.
func NewConfigFlow(flow *domain.Flow) (ports.StepHandler, error) {
	return &ConfigFlow{flow: flow}, nil
}

// ConnectionClass implements ports.ConnectionClassifier.
func (f *ConfigFlow) ConnectionClass() domain.ConnectionClass {
	return domain.ConnClassLocalPoll
}

// Step implements ports.StepHandler.
func (f *ConfigFlow) Step(ctx context.Context, stepID string, input map[string]any) (domain.StepResult, error) {
	switch stepID {
	case "user":
		return f.stepUser(input)
	case "discovery":
		return f.stepDiscovery(input)
	case "import":
		return f.stepImport(input)
	case "link":
		return f.stepLink()
	case "link_done":
		return f.stepLinkDone()
	case "scan":
		return f.stepScan()
	default:
		return domain.StepResult{}, fmt.Errorf("unexpected step %q", stepID)
	}
}

func (f *ConfigFlow) stepUser(input map[string]any) (domain.StepResult, error) {
	if input == nil {
		return domain.ShowForm("user", userSchema), nil
	}
	if errs := userSchema.Validate(input); errs != nil {
		return domain.ShowForm("user", userSchema).WithErrors(errs), nil
	}

	data := userSchema.Apply(input)
	name, _ := data["name"].(string)
	return domain.CreateEntry(name, data), nil
}

// stepDiscovery confirms a discovered device before creating its entry.
// The discovery context carries the address the scanner found.
func (f *ConfigFlow) stepDiscovery(input map[string]any) (domain.StepResult, error) {
	host, _ := f.flow.Context["host"].(string)
	if host == "" {
		return domain.Abort("no_devices_found"), nil
	}

	if input == nil {
		return domain.ShowForm("discovery", confirmSchema).
			WithPlaceholders(map[string]string{"host": host}), nil
	}

	data := confirmSchema.Apply(input)
	if confirmed, _ := data["confirm"].(bool); !confirmed {
		return domain.Abort("not_confirmed"), nil
	}
	return domain.CreateEntry(
		fmt.Sprintf("Demo (%s)", host),
		map[string]any{"name": "Demo", "host": host, "port": 8123},
	), nil
}

// stepImport creates the entry straight from legacy configuration,
// no questions asked.
func (f *ConfigFlow) stepImport(input map[string]any) (domain.StepResult, error) {
	if errs := userSchema.Validate(input); errs != nil {
		return domain.Abort("invalid_import"), nil
	}
	data := userSchema.Apply(input)
	name, _ := data["name"].(string)
	return domain.CreateEntry(name, data), nil
}

// stepLink sends the user to an external authorization page. The flow
// parks on link_done; advancing resumes there once the redirect landed.
func (f *ConfigFlow) stepLink() (domain.StepResult, error) {
	url := fmt.Sprintf("https://demo.example/authorize?flow_id=%s", f.flow.ID)
	return domain.ExternalStep("link_done", url), nil
}

func (f *ConfigFlow) stepLinkDone() (domain.StepResult, error) {
	return domain.CreateEntry("Demo (linked)",
		map[string]any{"name": "Demo", "auth": "linked"}), nil
}

// stepScan pretends to run a slow device scan: the first call reports
// progress, the poll after that finishes and moves to the user form.
func (f *ConfigFlow) stepScan() (domain.StepResult, error) {
	if !f.scanned {
		f.scanned = true
		return domain.ShowProgress("scan", "scanning"), nil
	}
	return domain.ProgressDone("user"), nil
}

// OptionsFlow reconfigures an existing demo entry. It pre-fills the form
// from the current data and merges its answers over it, preserving the
// fields the form does not cover.
type OptionsFlow struct {
	flow *domain.Flow
}

// NewOptionsFlow is the ports.HandlerFactory for options flows.
func NewOptionsFlow(flow *domain.Flow) (ports.StepHandler, error) {
	if flow.Entry == nil {
		return nil, fmt.Errorf("options flow without entry")
	}
	return &OptionsFlow{flow: flow}, nil
}

// Step implements ports.StepHandler.
func (f *OptionsFlow) Step(ctx context.Context, stepID string, input map[string]any) (domain.StepResult, error) {
	if stepID != "init" {
		return domain.StepResult{}, fmt.Errorf("unexpected step %q", stepID)
	}

	entry := f.flow.Entry
	optionsSchema := schema.MustNew(
		schema.Optional("host", schema.String()).Default(entry.Data["host"]),
		schema.Optional("port", schema.Int()).Default(entry.Data["port"]),
	)

	if input == nil {
		return domain.ShowForm("init", optionsSchema), nil
	}
	if errs := optionsSchema.Validate(input); errs != nil {
		return domain.ShowForm("init", optionsSchema).WithErrors(errs), nil
	}

	data := make(map[string]any, len(entry.Data))
	for k, v := range entry.Data {
		data[k] = v
	}
	for k, v := range optionsSchema.Apply(input) {
		data[k] = v
	}
	return domain.CreateEntry(entry.Title, data), nil
}
