package main

import (
	"context"
	"log"

	"github.com/KMohnishM/Cys-FFCS/internal/app/bootstrap"
	"github.com/dalemusser/waffle/app"
)

func main() {
	if err := app.Run(context.Background(), bootstrap.Hooks); err != nil {
		log.Fatal(err)
	}
}
