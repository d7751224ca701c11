package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"decko/internal/app"
	"decko/internal/content"
	"decko/internal/storage"
	"decko/internal/studio"
)

const (
	actionSearch   = "search"
	actionDraft    = "draft"
	actionGenerate = "generate"
	actionEdit     = "edit"
	actionSave     = "save"
	actionKey      = "key"
	actionQuit     = "quit"
)

var studioCmd = &cobra.Command{
	Use:   "studio",
	Short: "Interactive studio: discover, draft, generate and edit",
	Long: `Walk through the full flow in the terminal. Discover an event, draft a post,
send its image prompt to the studio, then generate or edit visuals.`,
	RunE: runStudio,
}

func init() {
	rootCmd.AddCommand(studioCmd)
}

func runStudio(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	svc, err := loadServices(ctx)
	if err != nil {
		return err
	}
	defer svc.Close()

	sess := svc.NewSession()
	sess.Init(ctx)

	fmt.Println(titleStyle.Render("Decko Social Studio"))

	if !sess.Snapshot().HasKey {
		fmt.Println(warnStyle.Render("A Gemini API key from a paid Google Cloud project is required."))
		if err := sess.SelectKey(ctx); err != nil {
			fmt.Println(errorStyle.Render(userFacing(err)))
			return nil
		}
	}

	for {
		action, err := chooseAction(ctx, sess.Snapshot())
		if errors.Is(err, huh.ErrUserAborted) || action == actionQuit {
			return nil
		}
		if err != nil {
			return err
		}

		if err := runAction(ctx, svc, sess, action); err != nil {
			if errors.Is(err, huh.ErrUserAborted) {
				continue
			}
			fmt.Println(errorStyle.Render(userFacing(err)))
			if errors.Is(err, studio.ErrReauthRequired) {
				if err := sess.SelectKey(ctx); err != nil {
					fmt.Println(errorStyle.Render(userFacing(err)))
				}
			}
		}
	}
}

func chooseAction(ctx context.Context, st studio.State) (string, error) {
	options := []huh.Option[string]{huh.NewOption("Discover an event", actionSearch)}
	if st.SearchResult != nil {
		options = append(options, huh.NewOption("Draft a post from the result", actionDraft))
	}
	options = append(options,
		huh.NewOption("Generate an image", actionGenerate),
		huh.NewOption("Edit an image", actionEdit),
	)
	if st.GeneratedImage != nil || st.EditedImage != nil {
		options = append(options, huh.NewOption("Save the latest image", actionSave))
	}
	options = append(options,
		huh.NewOption("Select API key", actionKey),
		huh.NewOption("Quit", actionQuit),
	)

	var action string
	err := huh.NewForm(huh.NewGroup(
		huh.NewSelect[string]().
			Title("What next?").
			Options(options...).
			Value(&action),
	)).RunWithContext(ctx)
	return action, err
}

func runAction(ctx context.Context, svc *app.Services, sess *studio.Session, action string) error {
	switch action {
	case actionSearch:
		return studioSearch(ctx, sess)
	case actionDraft:
		return studioDraft(ctx, sess)
	case actionGenerate:
		return studioGenerate(ctx, sess)
	case actionEdit:
		return studioEdit(ctx, svc, sess)
	case actionSave:
		return studioSave(ctx, svc, sess)
	case actionKey:
		if err := sess.SelectKey(ctx); err != nil {
			return err
		}
		fmt.Println(successStyle.Render("✓ API key selected"))
	}
	return nil
}

func studioSearch(ctx context.Context, sess *studio.Session) error {
	sess.SetView(content.ViewDiscover)

	var query string
	err := huh.NewForm(huh.NewGroup(
		huh.NewInput().
			Title("What are you looking for?").
			Placeholder("e.g. Tech conferences in San Francisco 2025").
			Value(&query),
	)).RunWithContext(ctx)
	if err != nil {
		return err
	}
	if strings.TrimSpace(query) == "" {
		return nil
	}

	if err := runWithSpinner(ctx, "Searching", func() error { return sess.Search(ctx, query) }); err != nil {
		return err
	}
	printSearchResult(sess.Snapshot().SearchResult)
	return nil
}

func studioDraft(ctx context.Context, sess *studio.Session) error {
	if err := runWithSpinner(ctx, "Drafting post", func() error { return sess.DraftPost(ctx) }); err != nil {
		return err
	}

	draft := sess.Snapshot().Draft
	if draft == nil {
		return nil
	}
	printDraft(draft)

	send, err := confirm(ctx, "Send the image prompt to the studio?")
	if err != nil || !send {
		return err
	}

	sess.SendToStudio()
	return studioGenerate(ctx, sess)
}

func confirmForm(title string, value *bool) *huh.Form {
	return huh.NewForm(huh.NewGroup(
		huh.NewConfirm().
			Title(title).
			Value(value),
	))
}

func confirm(ctx context.Context, title string) (bool, error) {
	answer := true
	err := confirmForm(title, &answer).RunWithContext(ctx)
	return answer, err
}

func studioGenerate(ctx context.Context, sess *studio.Session) error {
	sess.SetView(content.ViewStudio)
	sess.SetMode(content.ModeGenerate)

	st := sess.Snapshot()
	prompt := st.ImagePrompt
	aspect := string(st.ImageConfig.AspectRatio)
	resolution := string(st.ImageConfig.Resolution)

	aspectOptions := make([]huh.Option[string], 0, len(content.AspectRatios()))
	for _, ar := range content.AspectRatios() {
		aspectOptions = append(aspectOptions, huh.NewOption(ar.Label(), string(ar)))
	}

	err := huh.NewForm(huh.NewGroup(
		huh.NewText().
			Title("Image prompt").
			Value(&prompt),
		huh.NewSelect[string]().
			Title("Aspect ratio").
			Options(aspectOptions...).
			Value(&aspect),
		huh.NewSelect[string]().
			Title("Resolution").
			Options(
				huh.NewOption(content.ResolutionStandard.Label(), string(content.ResolutionStandard)),
				huh.NewOption(content.ResolutionHigh.Label(), string(content.ResolutionHigh)),
			).
			Value(&resolution),
	)).RunWithContext(ctx)
	if err != nil {
		return err
	}

	sess.SetImagePrompt(prompt)
	cfg := content.ImageConfig{AspectRatio: content.AspectRatio(aspect), Resolution: content.Resolution(resolution)}
	if err := sess.SetImageConfig(cfg); err != nil {
		return err
	}
	if strings.TrimSpace(prompt) == "" {
		fmt.Println(mutedStyle.Render("Nothing to generate without a prompt."))
		return nil
	}

	if err := runWithSpinner(ctx, "Generating image", func() error { return sess.GenerateImage(ctx) }); err != nil {
		return err
	}
	fmt.Println(infoStyle.Render("Image ready. Choose \"Save the latest image\" to keep it."))
	return nil
}

func studioEdit(ctx context.Context, svc *app.Services, sess *studio.Session) error {
	sess.SetView(content.ViewStudio)
	sess.SetMode(content.ModeEdit)

	var source, instruction string
	err := huh.NewForm(huh.NewGroup(
		huh.NewInput().
			Title("Source image").
			Description("File path, http(s) URL or data URL. Leave empty to keep the current one.").
			Value(&source),
		huh.NewInput().
			Title("Instruction").
			Placeholder("e.g. Add a retro filter, remove the background person").
			Value(&instruction),
	)).RunWithContext(ctx)
	if err != nil {
		return err
	}

	if strings.TrimSpace(source) != "" {
		img, err := svc.Loader.Load(ctx, source)
		if err != nil {
			return err
		}
		sess.LoadEditImage(img)
	}
	if sess.Snapshot().EditSource == nil {
		fmt.Println(mutedStyle.Render("Load a source image first."))
		return nil
	}

	return runWithSpinner(ctx, "Editing image", func() error { return sess.EditImage(ctx, instruction) })
}

func studioSave(ctx context.Context, svc *app.Services, sess *studio.Session) error {
	st := sess.Snapshot()

	img, kind := st.GeneratedImage, "generated"
	if (st.Mode == content.ModeEdit && st.EditedImage != nil) || img == nil {
		img, kind = st.EditedImage, "edited"
	}
	if img == nil {
		return nil
	}

	images, err := svc.Images(ctx)
	if err != nil {
		return err
	}
	location, err := images.Save(ctx, storage.NewImageName(kind, img, time.Now()), img)
	if err != nil {
		return err
	}
	fmt.Println(successStyle.Render("✓ Saved " + location))
	return nil
}
