package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"decko/internal/app"
	"decko/internal/content"
	"decko/internal/storage"
)

var (
	imageAspect      string
	imageResolution  string
	imageOutput      string
	imageSource      string
	imageInstruction string
)

var imageCmd = &cobra.Command{
	Use:   "image",
	Short: "Generate, edit and list images",
}

var imageGenerateCmd = &cobra.Command{
	Use:     "generate <prompt>",
	Short:   "Generate an image from a prompt",
	Example: `  decko image generate --aspect 16:9 --resolution high "a rooftop jazz night in neon colors"`,
	Args:    cobra.MinimumNArgs(1),
	RunE:    runImageGenerate,
}

var imageEditCmd = &cobra.Command{
	Use:     "edit",
	Short:   "Edit an image with a natural language instruction",
	Example: `  decko image edit --image poster.png --instruction "add a retro filter"`,
	RunE:    runImageEdit,
}

var imageListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved images",
	RunE:  runImageList,
}

func init() {
	imageGenerateCmd.Flags().StringVarP(&imageAspect, "aspect", "a", "", "Aspect ratio: 1:1, 16:9, 9:16, 4:3, 3:4")
	imageGenerateCmd.Flags().StringVarP(&imageResolution, "resolution", "r", "", "Resolution: standard (1K) or high (2K)")
	imageGenerateCmd.Flags().StringVarP(&imageOutput, "output", "o", "", "Write to this file instead of the image store")

	imageEditCmd.Flags().StringVarP(&imageSource, "image", "i", "", "Source image: file path, http(s) URL or data URL")
	imageEditCmd.Flags().StringVarP(&imageInstruction, "instruction", "p", "", "What to change")
	imageEditCmd.Flags().StringVarP(&imageOutput, "output", "o", "", "Write to this file instead of the image store")
	_ = imageEditCmd.MarkFlagRequired("image")
	_ = imageEditCmd.MarkFlagRequired("instruction")

	imageCmd.AddCommand(imageGenerateCmd, imageEditCmd, imageListCmd)
	rootCmd.AddCommand(imageCmd)
}

func runImageGenerate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	prompt := strings.TrimSpace(strings.Join(args, " "))
	if prompt == "" {
		return fmt.Errorf("prompt is empty")
	}

	svc, err := loadServices(ctx)
	if err != nil {
		return err
	}
	defer svc.Close()

	cfg, err := imageConfigFromFlags(svc.ImageConfig, imageAspect, imageResolution)
	if err != nil {
		return err
	}

	var img *content.Image
	err = runWithSpinner(ctx, fmt.Sprintf("Generating %s image (%s)", cfg.AspectRatio, cfg.Resolution.Label()), func() error {
		var genErr error
		img, genErr = svc.Models(svc.Keys).GenerateImage(ctx, prompt, cfg)
		return genErr
	})
	if err != nil {
		return fmt.Errorf("generate image: %w", err)
	}

	return saveImage(ctx, svc, "generated", img, imageOutput)
}

func runImageEdit(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	svc, err := loadServices(ctx)
	if err != nil {
		return err
	}
	defer svc.Close()

	source, err := svc.Loader.Load(ctx, imageSource)
	if err != nil {
		return fmt.Errorf("load source image: %w", err)
	}

	var img *content.Image
	err = runWithSpinner(ctx, "Editing image", func() error {
		var editErr error
		img, editErr = svc.Models(svc.Keys).EditImage(ctx, source, imageInstruction)
		return editErr
	})
	if err != nil {
		return fmt.Errorf("edit image: %w", err)
	}

	return saveImage(ctx, svc, "edited", img, imageOutput)
}

func runImageList(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	svc, err := loadServices(ctx)
	if err != nil {
		return err
	}
	defer svc.Close()

	images, err := svc.Images(ctx)
	if err != nil {
		return err
	}
	names, err := images.List(ctx)
	if err != nil {
		return err
	}

	if len(names) == 0 {
		fmt.Println(mutedStyle.Render("No saved images yet."))
		return nil
	}
	for _, name := range names {
		fmt.Println(name)
	}
	return nil
}

func imageConfigFromFlags(cfg content.ImageConfig, aspect, resolution string) (content.ImageConfig, error) {
	if aspect != "" {
		ar, err := content.ParseAspectRatio(aspect)
		if err != nil {
			return cfg, err
		}
		cfg.AspectRatio = ar
	}
	if resolution != "" {
		res, err := content.ParseResolution(resolution)
		if err != nil {
			return cfg, err
		}
		cfg.Resolution = res
	}
	return cfg, nil
}

func saveImage(ctx context.Context, svc *app.Services, kind string, img *content.Image, output string) error {
	if output != "" {
		if err := os.WriteFile(output, img.Data, 0644); err != nil {
			return fmt.Errorf("write %s: %w", output, err)
		}
		fmt.Println(successStyle.Render("✓ Saved " + output))
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
	slog.Debug("Image saved", "location", location, "bytes", len(img.Data))
	fmt.Println(successStyle.Render("✓ Saved " + location))
	return nil
}
