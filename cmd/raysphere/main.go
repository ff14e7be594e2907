// raysphere - CPU ray tracer for analytic spheres.
//
// Renders the reference scene (a red unit sphere under a white key light and
// a grey fill light) or any scene file to PNG, picks spheres under a pixel,
// and converts glTF, STL and OBJ models into sphere scenes.
package main

import (
	"context"
	"os"

	"fortio.org/log"
	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"
	"github.com/taigrr/raysphere/pkg/scene"
)

var version = "dev"

// sceneFlags are shared by every command that renders or inspects a scene.
type sceneFlags struct {
	path   string
	bg     string
	width  int
	height int
}

func (f *sceneFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.path, "scene", "s", "", "Scene file or model (.json, .yaml, .glb, .gltf, .stl, .obj); default is the reference scene")
	cmd.Flags().StringVar(&f.bg, "bg", "", "Background color override (#rrggbb)")
	cmd.Flags().IntVar(&f.width, "width", 320, "Image width in pixels")
	cmd.Flags().IntVar(&f.height, "height", 240, "Image height in pixels")
}

func (f *sceneFlags) load() (scene.Scene, error) {
	sc, err := loadScene(f.path)
	if err != nil {
		return scene.Scene{}, err
	}
	if f.bg != "" {
		bg, err := scene.ParseColor(f.bg)
		if err != nil {
			return scene.Scene{}, err
		}
		sc = sc.WithBackground(bg)
	}
	return sc, nil
}

// loadScene resolves a scene argument, empty meaning the reference scene.
func loadScene(path string) (scene.Scene, error) {
	if path == "" {
		return scene.Default(), nil
	}
	return scene.Open(path)
}

func newRootCmd() *cobra.Command {
	var verbose bool
	cmd := &cobra.Command{
		Use:   "raysphere",
		Short: "CPU ray tracer for analytic spheres",
		Long: `raysphere - CPU ray tracer for analytic spheres

Spheres are shaded with an ambient term plus diffuse and specular
contributions from every point light. Scenes are JSON or YAML files
(the sphere editor save format is accepted as is) or glTF, STL and
OBJ models, whose meshes are replaced by their bounding spheres.`,
		SilenceUsage: true,
		PersistentPreRun: func(*cobra.Command, []string) {
			if verbose {
				log.SetLogLevel(log.Verbose)
			}
		},
	}
	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose logging")
	cmd.AddCommand(newRenderCmd(), newPickCmd(), newSceneCmd(), newInfoCmd())
	return cmd
}

func main() {
	if err := fang.Execute(context.Background(), newRootCmd(), fang.WithVersion(version)); err != nil {
		os.Exit(1)
	}
}
