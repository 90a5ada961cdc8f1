package builder

import (
	"context"
	"fmt"
)

// DefaultPages is the basic website template seeded into new projects.
var DefaultPages = []PageInput{
	{
		Name:        "Home",
		Path:        "/",
		Description: "Landing page with hero section and features",
		Content: `"use client";

import React from 'react';
import Link from 'next/link';

export default function HomePage() {
  return (
    <div className="min-h-screen bg-background">
      <header className="bg-white shadow">
        <h1 className="text-3xl font-bold text-gray-900">Welcome</h1>
      </header>
      <main className="max-w-7xl mx-auto py-6">
        <p className="text-gray-600">This is your new project homepage.</p>
        <Link href="/about" className="block p-6">About</Link>
        <Link href="/contact" className="block p-6">Contact</Link>
      </main>
    </div>
  );
}`,
	},
	{
		Name:        "About",
		Path:        "/about",
		Description: "About page with company information",
		Content: `"use client";

import React from 'react';

export default function AboutPage() {
  return (
    <div className="min-h-screen bg-background">
      <div className="bg-white shadow rounded-lg p-8">
        <h1 className="text-3xl font-bold text-gray-900 mb-6">About</h1>
        <p>Welcome to our project! Share your story here.</p>
      </div>
    </div>
  );
}`,
	},
	{
		Name:        "Contact",
		Path:        "/contact",
		Description: "Contact form page",
		Content: `"use client";

import React from 'react';

export default function ContactPage() {
  return (
    <div className="min-h-screen bg-background">
      <form className="space-y-6 p-8">
        <h1 className="text-3xl font-bold text-gray-900 mb-6">Contact Us</h1>
        <label htmlFor="email" className="block text-sm">Email</label>
        <input type="email" id="email" className="mt-1 block w-full" />
        <button type="submit" className="py-2 px-4 bg-primary text-white">Send Message</button>
      </form>
    </div>
  );
}`,
	},
}

// SetupProject creates a project and seeds it with DefaultPages. An empty
// RepoName defaults to the slug of the project name.
func SetupProject(ctx context.Context, store ProjectStore, in ProjectInput) (Project, []Page, error) {
	if err := in.Validate(); err != nil {
		return Project{}, nil, err
	}
	if in.RepoName == "" {
		in.RepoName = Slug(in.Name)
	}
	p, err := store.CreateProject(ctx, in)
	if err != nil {
		return Project{}, nil, fmt.Errorf("create project: %w", err)
	}
	pages := make([]Page, 0, len(DefaultPages))
	for _, tmpl := range DefaultPages {
		page, err := store.AddPage(ctx, p.ID, tmpl)
		if err != nil {
			return p, pages, fmt.Errorf("seed page %s: %w", tmpl.Path, err)
		}
		pages = append(pages, page)
	}
	return p, pages, nil
}
