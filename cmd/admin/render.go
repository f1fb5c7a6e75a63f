package main

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"go-gin-user-admin/internal/domain"
)

func renderUsers(w io.Writer, us []domain.User) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tEMAIL\tROLE\tCREATED")
	for _, u := range us {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", u.ID, u.Name, u.Email, u.Role, u.CreatedAt.Local().Format(time.DateTime))
	}
	return tw.Flush()
}

func renderUser(w io.Writer, u domain.User) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "ID\t%s\n", u.ID)
	fmt.Fprintf(tw, "Name\t%s\n", u.Name)
	fmt.Fprintf(tw, "Email\t%s\n", u.Email)
	fmt.Fprintf(tw, "Role\t%s\n", u.Role)
	fmt.Fprintf(tw, "Created\t%s\n", u.CreatedAt.Local().Format(time.DateTime))
	fmt.Fprintf(tw, "Updated\t%s\n", u.UpdatedAt.Local().Format(time.DateTime))
	return tw.Flush()
}
