package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"fortio.org/log"
	"github.com/spf13/cobra"
	"github.com/taigrr/raysphere/pkg/render"
	"github.com/taigrr/raysphere/pkg/scene"
)

func newRenderCmd() *cobra.Command {
	var (
		sf      sceneFlags
		out     string
		workers int
	)
	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render a scene to PNG",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			sc, err := sf.load()
			if err != nil {
				return err
			}
			start := time.Now()
			fb, err := render.NewRenderer(workers).Render(cmd.Context(), sc, sf.width, sf.height)
			if err != nil {
				return fmt.Errorf("render: %w", err)
			}
			log.Infof("Rendered %dx%d, %d spheres in %v", fb.Width, fb.Height, len(sc.Spheres), time.Since(start).Round(time.Millisecond))
			if err := fb.SavePNG(out); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", out)
			return nil
		},
	}
	sf.register(cmd)
	cmd.Flags().StringVarP(&out, "output", "o", "raysphere.png", "Output PNG path")
	cmd.Flags().IntVar(&workers, "workers", 0, "Rows rendered in parallel (0 = number of CPUs)")
	return cmd
}

func newPickCmd() *cobra.Command {
	var sf sceneFlags
	cmd := &cobra.Command{
		Use:   "pick <x> <y>",
		Short: "Report the sphere visible at a pixel",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			x, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid x %q: %w", args[0], err)
			}
			y, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("invalid y %q: %w", args[1], err)
			}
			sc, err := sf.load()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			idx, t, ok := render.Pick(sc, sf.width, sf.height, x, y)
			if !ok {
				fmt.Fprintln(out, "background")
				return nil
			}
			sp := sc.Spheres[idx]
			fmt.Fprintf(out, "sphere %d at t=%.4f (center %.3f,%.3f,%.3f radius %.3f color %s)\n",
				idx, t, sp.Center.X, sp.Center.Y, sp.Center.Z, sp.Radius, scene.Hex(sp.Material.BaseColor))
			return nil
		},
	}
	sf.register(cmd)
	return cmd
}

func newSceneCmd() *cobra.Command {
	var from, out string
	cmd := &cobra.Command{
		Use:   "scene",
		Short: "Write the reference scene, or a model converted to spheres",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			sc, err := loadScene(from)
			if err != nil {
				return err
			}
			if out != "" {
				if err := scene.Save(out, sc); err != nil {
					return err
				}
				log.Infof("Saved scene with %d spheres to %s", len(sc.Spheres), out)
				return nil
			}
			data, err := scene.Encode(sc, scene.FormatJSON)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "Source scene file or model (.glb, .gltf, .stl, .obj); default is the reference scene")
	cmd.Flags().StringVarP(&out, "output", "o", "", "Output file (.json, .yaml); default stdout as JSON")
	return cmd
}

func newInfoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info [scene]",
		Short: "Display scene information",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ""
			if len(args) == 1 {
				path = args[0]
			}
			sc, err := loadScene(path)
			if err != nil {
				return err
			}
			return printInfo(cmd, path, sc)
		},
	}
}

func printInfo(cmd *cobra.Command, path string, sc scene.Scene) error {
	out := cmd.OutOrStdout()
	name := "(reference scene)"
	if path != "" {
		name = filepath.Base(path)
		if info, err := os.Stat(path); err == nil {
			name += fmt.Sprintf(" [%s, %.2f KB]", strings.ToUpper(strings.TrimPrefix(filepath.Ext(path), ".")), float64(info.Size())/1024)
		}
	}
	cam := sc.Camera
	fmt.Fprintf(out, "Scene:      %s\n", name)
	fmt.Fprintf(out, "Camera:     eye (%.3f, %.3f, %.3f) look-at (%.3f, %.3f, %.3f) fov %.1f°\n",
		cam.Eye.X, cam.Eye.Y, cam.Eye.Z, cam.LookAt.X, cam.LookAt.Y, cam.LookAt.Z, cam.FovY)
	fmt.Fprintf(out, "Background: %s\n", scene.Hex(sc.Background))
	fmt.Fprintf(out, "Lights:     %d\n", len(sc.Lights))
	for i, l := range sc.Lights {
		fmt.Fprintf(out, "  %d: (%.3f, %.3f, %.3f) %s\n", i, l.Position.X, l.Position.Y, l.Position.Z, scene.Hex(l.Color))
	}
	fmt.Fprintf(out, "Spheres:    %d\n", len(sc.Spheres))
	if lo, hi, ok := sc.Bounds(); ok {
		size := hi.Sub(lo)
		fmt.Fprintf(out, "Bounds Min: (%.3f, %.3f, %.3f)\n", lo.X, lo.Y, lo.Z)
		fmt.Fprintf(out, "Bounds Max: (%.3f, %.3f, %.3f)\n", hi.X, hi.Y, hi.Z)
		fmt.Fprintf(out, "Dimensions: %.3f x %.3f x %.3f\n", size.X, size.Y, size.Z)
	}
	return nil
}
