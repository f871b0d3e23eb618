package hearthd_test

import (
	"context"
	"fmt"
	"log"

	"github.com/hearthd/hearthd"
	"github.com/hearthd/hearthd/pkg/domain"
	"github.com/hearthd/hearthd/pkg/ports"
	"github.com/hearthd/hearthd/pkg/schema"
)

// ExampleNew demonstrates registering an integration and driving its
// setup wizard end to end, the way an embedding application would.
func ExampleNew() {
	// 1. Define the wizard: one form step that creates an entry.
	loginSchema := schema.MustNew(
		schema.Required("username", schema.String()),
		schema.Optional("server", schema.String()).Default("chat.example.org"),
	)

	factory := func(f *domain.Flow) (ports.StepHandler, error) {
		return ports.StepFunc(func(ctx context.Context, stepID string, input map[string]any) (domain.StepResult, error) {
			if input == nil {
				return domain.ShowForm("user", loginSchema), nil
			}
			if errs := loginSchema.Validate(input); errs != nil {
				return domain.ShowForm("user", loginSchema).WithErrors(errs), nil
			}
			data := loginSchema.Apply(input)
			return domain.CreateEntry(data["username"].(string), data), nil
		}), nil
	}

	// 2. Wire a hub and register the integration.
	hub := hearthd.New()
	hub.Handlers.Register("chat", factory)

	// 3. Drive the wizard.
	ctx := context.Background()
	result, err := hub.ConfigFlows.Start(ctx, "chat", nil, nil)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println("step:", result.StepID)

	final, err := hub.ConfigFlows.Advance(ctx, result.FlowID, map[string]any{"username": "frieda"})
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println("result:", string(final.Type))

	entry, err := hub.Entries.Get(final.EntryID)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println("entry:", entry.Title, entry.Data["server"])

	// Output:
	// step: user
	// result: create_entry
	// entry: frieda chat.example.org
}
