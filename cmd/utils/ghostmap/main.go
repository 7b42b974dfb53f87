package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"justapengu.in/ghostrace/internal/race"
	"justapengu.in/ghostrace/pkg/ghostpath"
)

var (
	searchDir   string
	fileName    string
	comparePath string
)

func init() {
	flag.StringVar(&searchDir, "d", ".", "directory to search for ghost paths")
	flag.StringVar(&fileName, "f", "ghost_path.json", "ghost path file name to look for")
	flag.StringVar(&comparePath, "compare", "", "optional ghost path to draw over every map")
	flag.Parse()
}

func main() {
	var compare race.GhostPath

	if comparePath != "" {
		var err error

		compare, err = ghostpath.ReadFile(comparePath)

		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
	}

	var paths []string

	if err := filepath.Walk(searchDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		if !info.IsDir() && info.Name() == fileName {
			paths = append(paths, path)

			fmt.Println(path)
		}

		return nil
	}); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}

	finish := race.DefaultFinishLine()

	var wg sync.WaitGroup

	for _, path := range paths {
		path := path
		wg.Add(1)

		go func() {
			defer wg.Done()

			if err := render(path, compare, &finish); err != nil {
				fmt.Printf("%s: %s\n", path, err)
			}
		}()
	}

	wg.Wait()
}

func render(path string, compare race.GhostPath, finish *race.FinishLine) error {
	ghost, err := ghostpath.ReadFile(path)

	if err != nil {
		return err
	}

	dir := filepath.Dir(path)

	f, err := os.Create(filepath.Join(dir, "map.png"))

	if err != nil {
		return err
	}

	defer f.Close()

	data, err := ghostpath.NewTrackMapRenderer(ghost, compare, finish).Render(f)

	if err != nil {
		return err
	}

	return data.Save(filepath.Join(dir, "map.ini"))
}
