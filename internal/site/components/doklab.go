package components

import (
	"fmt"

	"github.com/manuschillerdev/doklab-site/internal/site"
)

// DoklabHeader returns the header of every page.
func DoklabHeader(meta site.Meta) HeaderOptions {
	return HeaderOptions{
		Logo:     meta.Name,
		HomeURL:  meta.Href("/"),
		SkipLink: true,
		Links: []site.NavLink{
			{Label: "Documentation", URL: meta.Href("/docs")},
		},
	}
}

// DoklabHero returns the landing page hero.
func DoklabHero(meta site.Meta) HeroOptions {
	return HeroOptions{
		Title: "Platform features for Docker Compose",
		Lead: "A Docker plugin that adds platform features like GitOps, automatic routing with TLS, " +
			"external secrets, cronjobs, backups, and self-healing/auto-scaling to Docker Compose.",
		PrimaryButton:   HeroButton{Text: "Get Started", URL: meta.Href("/docs/getting-started")},
		SecondaryButton: HeroButton{Text: "View Documentation", URL: meta.Href("/docs")},
		LogoSrc:         meta.Href("/logo.svg"),
		LogoAlt:         meta.Name,
	}
}

// DoklabFeatures returns the features listed on small screens in place of
// the compose walkthrough.
func DoklabFeatures() []site.Feature {
	return []site.Feature{
		{
			Title:       "Routing with automatic TLS",
			Description: "Two labels. Your service gets a public HTTPS endpoint with automatic certificate provisioning.",
		},
		{
			Title:       "Secrets management",
			Description: "Resolve secrets at deploy time from SOPS, Vault, AWS, GCP, Azure, 1Password, and more.",
		},
		{
			Title:       "Scale to zero",
			Description: "Containers stop after idle timeout. First request wakes them up in under a second.",
		},
		{
			Title:       "Autoheal",
			Description: "Automatically restart containers that fail health checks. No more manual intervention.",
		},
		{
			Title:       "Simple backups",
			Description: "One label enables volume snapshots. Local or remote storage via Kopia.",
		},
		{
			Title:       "GitOps deployment",
			Description: "Point at a git repo. It gets cloned, pulled, and deployed automatically.",
		},
	}
}

// DoklabInterlude returns the statement between the two walkthroughs.
func DoklabInterlude() InterludeOptions {
	return InterludeOptions{
		Title: "One config to rule them all",
		Lead:  "Your compose files define services. The doklab config defines how they're deployed, synced, and maintained.",
	}
}

// DoklabCTA returns the waitlist call to action.
func DoklabCTA(meta site.Meta) CTAOptions {
	return CTAOptions{
		Title:       "Ready to level up your homelab?",
		Lead:        "Join the waitlist to get early access when we launch.",
		Placeholder: "you@example.com",
		ButtonText:  "Join Waitlist",
		DocsLabel:   "read the documentation",
		DocsURL:     meta.Href("/docs"),
	}
}

// DoklabFooter returns the landing page footer.
func DoklabFooter(meta site.Meta, year int) FooterOptions {
	return FooterOptions{
		Columns: []site.FooterColumn{
			{Title: "Product", Links: []site.NavLink{
				{Label: "Features", URL: "#features"},
				{Label: "Pricing", URL: "#pricing"},
				{Label: "Changelog", URL: "#changelog"},
			}},
			{Title: "Documentation", Links: []site.NavLink{
				{Label: "Getting Started", URL: meta.Href("/docs/getting-started")},
				{Label: "Guides", URL: meta.Href("/docs/labels")},
				{Label: "API Reference", URL: meta.Href("/docs/configuration")},
			}},
			{Title: "Community", Links: []site.NavLink{
				{Label: "GitHub", URL: meta.RepositoryURL, External: true},
				{Label: "Discord", URL: "#discord"},
				{Label: "Twitter", URL: "#twitter"},
			}},
			{Title: "Company", Links: []site.NavLink{
				{Label: "About", URL: "#about"},
				{Label: "Blog", URL: "#blog"},
				{Label: "Contact", URL: "#contact"},
			}},
		},
		Copyright: fmt.Sprintf("© %d %s. All rights reserved.", year, meta.Name),
		Legal: []site.NavLink{
			{Label: "Privacy", URL: "#privacy"},
			{Label: "Terms", URL: "#terms"},
		},
	}
}

// DocsFooter returns the short footer of the documentation.
func DocsFooter(meta site.Meta, year int) FooterOptions {
	return FooterOptions{
		Copyright: fmt.Sprintf("MIT %d © %s", year, meta.Name),
		Legal: []site.NavLink{
			{Label: "Home", URL: meta.Href("/")},
			{Label: "GitHub", URL: meta.RepositoryURL, External: true},
		},
	}
}
